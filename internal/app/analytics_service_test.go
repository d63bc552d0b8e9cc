package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobflow/internal/domain/application"
	"jobflow/internal/schedule"
)

func newAnalyticsFixture() (*AnalyticsService, *mockRepository) {
	repo := newMockRepository()
	return NewAnalyticsService(repo, schedule.New(time.UTC, 7), testLogger()), repo
}

func seedRecord(repo *mockRepository, lang application.Language, company string, status application.Status, sent bool, followups int) {
	rec := &application.Record{
		ID:        company + "-" + string(lang),
		Company:   company,
		Email:     "jobs@" + company + ".example",
		Status:    status,
		Followups: followups,
		Language:  lang,
	}
	if sent {
		rec.SentDate = "2025-05-01T09:00:00Z"
	}
	repo.records[lang] = append(repo.records[lang], rec)
}

func TestDashboardEmptyStore(t *testing.T) {
	svc, _ := newAnalyticsFixture()

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.ResponseRate)
	assert.Zero(t, stats.AvgFollowups)
	assert.NotNil(t, stats.ByStatus)
	assert.NotNil(t, stats.ByLanguage)
}

func TestDashboardRatesOverSentOnly(t *testing.T) {
	svc, repo := newAnalyticsFixture()
	seedRecord(repo, application.LanguageEN, "acme", application.StatusHired, true, 2)
	seedRecord(repo, application.LanguageEN, "globex", application.StatusSent, true, 1)
	seedRecord(repo, application.LanguageEN, "initech", application.StatusCallReceived, true, 1)
	seedRecord(repo, application.LanguageEN, "umbrella", application.StatusRejected, true, 0)
	seedRecord(repo, application.LanguageFR, "hooli", application.StatusDraft, false, 0)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.SentTotal, "drafts are not counted as sent")
	assert.InDelta(t, 50.0, stats.ResponseRate, 0.01, "hired + call received out of 4 sent")
	assert.InDelta(t, 25.0, stats.SuccessRate, 0.01)
	assert.Equal(t, 4, stats.TotalFollowups)
	assert.InDelta(t, 1.0, stats.AvgFollowups, 0.01)
	assert.Equal(t, 1, stats.ByLanguage["fr"])
	assert.Equal(t, 1, stats.ByStatus[string(application.StatusHired)])
}

func TestTimelineBucketsActivityByDay(t *testing.T) {
	svc, repo := newAnalyticsFixture()
	today := time.Now().UTC().Format(time.RFC3339)
	repo.activity = []application.ActivityEntry{
		{Timestamp: today, Action: application.ActionEmailSent},
		{Timestamp: today, Action: application.ActionEmailSent},
		{Timestamp: today, Action: application.ActionFollowupSent},
		{Timestamp: "2019-01-01T00:00:00Z", Action: application.ActionEmailSent},
		{Timestamp: "garbage", Action: application.ActionEmailSent},
	}

	timeline, err := svc.Timeline(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, timeline, 7)
	last := timeline[len(timeline)-1]
	assert.Equal(t, 2, last.Sent)
	assert.Equal(t, 1, last.Followups)

	total := 0
	for _, point := range timeline {
		total += point.Sent
	}
	assert.Equal(t, 2, total, "out-of-window and malformed entries are ignored")
}

func TestTopCompanies(t *testing.T) {
	svc, repo := newAnalyticsFixture()
	for i := 0; i < 3; i++ {
		seedRecord(repo, application.LanguageEN, "acme", application.StatusSent, true, 0)
	}
	seedRecord(repo, application.LanguageEN, "globex", application.StatusSent, true, 0)
	seedRecord(repo, application.LanguageFR, "", application.StatusSent, true, 0)

	top, err := svc.TopCompanies(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, top, 2, "blank companies are excluded")
	assert.Equal(t, CompanyCount{Company: "acme", Count: 3}, top[0])
	assert.Equal(t, CompanyCount{Company: "globex", Count: 1}, top[1])
}

func TestEffectivenessBuckets(t *testing.T) {
	svc, repo := newAnalyticsFixture()
	seedRecord(repo, application.LanguageEN, "a", application.StatusSent, true, 0)
	seedRecord(repo, application.LanguageEN, "b", application.StatusOffer, true, 1)
	seedRecord(repo, application.LanguageEN, "c", application.StatusRejected, true, 1)
	seedRecord(repo, application.LanguageEN, "d", application.StatusDraft, false, 0)

	buckets, err := svc.Effectiveness(context.Background())
	require.NoError(t, err)

	require.Len(t, buckets, 2)
	assert.Equal(t, EffectivenessBucket{Followups: 0, Total: 1, Responded: 0, Rate: 0}, buckets[0])
	assert.Equal(t, EffectivenessBucket{Followups: 1, Total: 2, Responded: 1, Rate: 50}, buckets[1])
}

func TestWeeklyCountsRecentActivityOnly(t *testing.T) {
	svc, repo := newAnalyticsFixture()
	now := time.Now().UTC()
	repo.activity = []application.ActivityEntry{
		{Timestamp: now.Format(time.RFC3339), Action: application.ActionEmailSent},
		{Timestamp: now.AddDate(0, 0, -2).Format(time.RFC3339), Action: application.ActionFollowupSent},
		{Timestamp: now.AddDate(0, 0, -3).Format(time.RFC3339), Action: application.ActionBounceDetected},
		{Timestamp: now.AddDate(0, 0, -30).Format(time.RFC3339), Action: application.ActionEmailSent},
	}

	weekly, err := svc.Weekly(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &WeeklyStats{Sent: 1, Followups: 1, Bounced: 1}, weekly)
}
