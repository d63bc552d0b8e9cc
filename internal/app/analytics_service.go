package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"jobflow/internal/domain/application"
	"jobflow/internal/schedule"
)

// DashboardStats is the aggregate view served on the dashboard.
type DashboardStats struct {
	Total          int            `json:"total"`
	SentTotal      int            `json:"sent_total"`
	ByStatus       map[string]int `json:"by_status"`
	ByLanguage     map[string]int `json:"by_language"`
	ResponseRate   float64        `json:"response_rate"`
	SuccessRate    float64        `json:"success_rate"`
	TotalFollowups int            `json:"total_followups"`
	AvgFollowups   float64        `json:"avg_followups"`
}

// TimelinePoint is one day of outbound volume.
type TimelinePoint struct {
	Date      string `json:"date"`
	Sent      int    `json:"sent"`
	Followups int    `json:"followups"`
}

// CompanyCount is one entry of the top-companies list.
type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// EffectivenessBucket reports response outcomes grouped by how many
// follow-ups a record received.
type EffectivenessBucket struct {
	Followups int     `json:"followups"`
	Total     int     `json:"total"`
	Responded int     `json:"responded"`
	Rate      float64 `json:"rate"`
}

// WeeklyStats is the last-seven-days activity summary.
type WeeklyStats struct {
	Sent      int `json:"sent"`
	Followups int `json:"followups"`
	Skipped   int `json:"skipped"`
	Bounced   int `json:"bounced"`
}

// AnalyticsService derives read-only aggregates from the record store and
// the activity log.
type AnalyticsService struct {
	repo   application.Repository
	policy schedule.Policy
	log    *logrus.Logger
}

func NewAnalyticsService(repo application.Repository, policy schedule.Policy, log *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, policy: policy, log: log}
}

func (s *AnalyticsService) allRecords(ctx context.Context) ([]*application.Record, error) {
	var all []*application.Record
	for _, lang := range []application.Language{application.LanguageEN, application.LanguageFR} {
		records, err := s.repo.ListAll(ctx, lang)
		if err != nil {
			return nil, fmt.Errorf("list %s records: %w", lang, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

// Dashboard computes the aggregate stats over both partitions. Rates are
// computed over records that were actually sent, so drafts do not dilute
// them.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	records, err := s.allRecords(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		ByStatus:   map[string]int{},
		ByLanguage: map[string]int{},
	}
	positive := map[application.Status]bool{}
	for _, st := range application.PositiveStatuses {
		positive[st] = true
	}

	responded := 0
	for _, rec := range records {
		stats.Total++
		stats.ByStatus[string(rec.Status)]++
		stats.ByLanguage[string(rec.Language)]++
		stats.TotalFollowups += rec.Followups
		if rec.SentDate != "" {
			stats.SentTotal++
			if positive[rec.Status] {
				responded++
			}
		}
	}
	if stats.SentTotal > 0 {
		stats.ResponseRate = percent(responded, stats.SentTotal)
		hired := stats.ByStatus[string(application.StatusHired)] + stats.ByStatus[string(application.StatusOffer)]
		stats.SuccessRate = percent(hired, stats.SentTotal)
		stats.AvgFollowups = float64(stats.TotalFollowups) / float64(stats.SentTotal)
	}
	return stats, nil
}

// Timeline buckets sends and follow-ups per day over the trailing window.
func (s *AnalyticsService) Timeline(ctx context.Context, days int) ([]TimelinePoint, error) {
	if days < 1 {
		days = 30
	}
	entries, err := s.repo.ListActivity(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	now := s.policy.Now()
	start := now.AddDate(0, 0, -(days - 1))
	byDay := map[string]*TimelinePoint{}
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		byDay[date] = &TimelinePoint{Date: date}
	}

	for _, entry := range entries {
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			continue
		}
		date := ts.In(s.policy.Location).Format("2006-01-02")
		point, ok := byDay[date]
		if !ok {
			continue
		}
		switch entry.Action {
		case application.ActionEmailSent:
			point.Sent++
		case application.ActionFollowupSent:
			point.Followups++
		}
	}

	timeline := make([]TimelinePoint, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		timeline = append(timeline, *byDay[date])
	}
	return timeline, nil
}

// TopCompanies returns the most-contacted companies, busiest first.
func (s *AnalyticsService) TopCompanies(ctx context.Context, limit int) ([]CompanyCount, error) {
	records, err := s.allRecords(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, rec := range records {
		if rec.Company == "" {
			continue
		}
		counts[rec.Company]++
	}
	top := make([]CompanyCount, 0, len(counts))
	for company, count := range counts {
		top = append(top, CompanyCount{Company: company, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Company < top[j].Company
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// Effectiveness groups sent records by follow-up count and reports the
// response rate of each bucket.
func (s *AnalyticsService) Effectiveness(ctx context.Context) ([]EffectivenessBucket, error) {
	records, err := s.allRecords(ctx)
	if err != nil {
		return nil, err
	}
	positive := map[application.Status]bool{}
	for _, st := range application.PositiveStatuses {
		positive[st] = true
	}

	type bucket struct{ total, responded int }
	buckets := map[int]*bucket{}
	for _, rec := range records {
		if rec.SentDate == "" {
			continue
		}
		b, ok := buckets[rec.Followups]
		if !ok {
			b = &bucket{}
			buckets[rec.Followups] = b
		}
		b.total++
		if positive[rec.Status] {
			b.responded++
		}
	}

	counts := make([]int, 0, len(buckets))
	for n := range buckets {
		counts = append(counts, n)
	}
	sort.Ints(counts)

	out := make([]EffectivenessBucket, 0, len(counts))
	for _, n := range counts {
		b := buckets[n]
		out = append(out, EffectivenessBucket{
			Followups: n,
			Total:     b.total,
			Responded: b.responded,
			Rate:      percent(b.responded, b.total),
		})
	}
	return out, nil
}

// Weekly summarizes the last seven days of activity.
func (s *AnalyticsService) Weekly(ctx context.Context) (*WeeklyStats, error) {
	entries, err := s.repo.ListActivity(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	cutoff := s.policy.Now().AddDate(0, 0, -7)

	stats := &WeeklyStats{}
	for _, entry := range entries {
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil || ts.Before(cutoff) {
			continue
		}
		switch entry.Action {
		case application.ActionEmailSent:
			stats.Sent++
		case application.ActionFollowupSent:
			stats.Followups++
		case application.ActionFollowupSkipped:
			stats.Skipped++
		case application.ActionBounceDetected:
			stats.Bounced++
		}
	}
	return stats, nil
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
