package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"jobflow/internal/domain/application"
	"jobflow/internal/domain/attachment"
	"jobflow/internal/domain/mail"
	"jobflow/internal/schedule"
)

// RunError is one failed or rejected record inside a batch run.
type RunError struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// RunStats summarizes one batch run. It is transient: returned to the
// caller, never persisted.
type RunStats struct {
	Sent    int        `json:"sent"`
	Skipped int        `json:"skipped"`
	Failed  int        `json:"failed"`
	Errors  []RunError `json:"errors,omitempty"`
}

// FollowupService drives the follow-up cycle: find due records, send one
// follow-up each, advance their schedule state. Records are processed
// strictly sequentially; the backing store has no locking primitive and the
// mail provider rate-limits bursts.
type FollowupService struct {
	repo     application.Repository
	mailer   mail.Mailer
	resolver attachment.Resolver
	policy   schedule.Policy
	log      *logrus.Logger
}

func NewFollowupService(
	repo application.Repository,
	mailer mail.Mailer,
	resolver attachment.Resolver,
	policy schedule.Policy,
	log *logrus.Logger,
) *FollowupService {
	return &FollowupService{
		repo:     repo,
		mailer:   mailer,
		resolver: resolver,
		policy:   policy,
		log:      log,
	}
}

// ProcessFollowups runs one follow-up cycle over the selected partition
// ("en", "fr" or "both"). A failed record never aborts the rest of the run;
// a candidate-listing failure aborts only its own partition. With dryRun set
// the run reports what it would send without sending or writing anything.
func (s *FollowupService) ProcessFollowups(ctx context.Context, partition string, dryRun bool) (*RunStats, error) {
	languages, ok := partitionLanguages(partition)
	if !ok {
		return nil, fmt.Errorf("unknown partition %q", partition)
	}

	stats := &RunStats{}
	for _, lang := range languages {
		candidates, err := s.repo.ListDueCandidates(ctx, lang)
		if err != nil {
			s.log.Errorf("List %s candidates failed: %v", lang, err)
			stats.Errors = append(stats.Errors, RunError{
				Reason: fmt.Sprintf("list %s candidates: %v", lang, err),
			})
			continue
		}

		due := 0
		for _, rec := range candidates {
			if !s.policy.IsDue(rec.NextFollowupDate, s.policy.Now()) {
				continue
			}
			due++
			s.processRecord(ctx, rec, dryRun, stats)
		}
		s.log.WithFields(logrus.Fields{
			"language":   lang,
			"candidates": len(candidates),
			"due":        due,
			"dry_run":    dryRun,
		}).Info("Partition processed")
	}
	return stats, nil
}

// processRecord handles a single due record. The precondition checks run in
// a fixed order and the first failing one wins.
func (s *FollowupService) processRecord(ctx context.Context, rec *application.Record, dryRun bool, stats *RunStats) {
	log := s.log.WithFields(logrus.Fields{
		"id":      rec.ID,
		"email":   rec.Email,
		"company": rec.Company,
	})

	if !mail.ValidAddress(rec.Email) {
		s.skip(ctx, rec, "Invalid email address", dryRun, stats)
		return
	}
	if rec.Body == "" {
		s.skip(ctx, rec, "Missing email body", dryRun, stats)
		return
	}
	if rec.Attachment == "" {
		s.skip(ctx, rec, "Missing CV filename", dryRun, stats)
		return
	}
	attachmentPath, ok := s.resolver.Resolve(rec.Language, rec.Attachment)
	if !ok {
		s.skip(ctx, rec, "Attachment not found: "+rec.Attachment, dryRun, stats)
		return
	}

	subject := rec.Position
	if subject == "" {
		subject = followupSubjectFallback
	}

	if dryRun {
		stats.Sent++
		log.Info("[DRY RUN] Would send follow-up")
		return
	}

	result, err := s.mailer.SendWithDelay(ctx, mail.Message{
		To:             rec.Email,
		Subject:        subject,
		Body:           rec.Body,
		AttachmentPath: attachmentPath,
	})
	if err != nil {
		s.fail(ctx, rec, err, stats)
		return
	}

	newCount := rec.Followups + 1
	if err := s.repo.UpdateFollowup(ctx, rec.ID, rec.Language, newCount); err != nil {
		s.fail(ctx, rec, fmt.Errorf("record follow-up state: %w", err), stats)
		return
	}

	stats.Sent++
	log.Infof("Follow-up #%d sent", newCount)
	s.appendActivity(ctx, rec, application.ActionFollowupSent, application.ResultSuccess,
		fmt.Sprintf("follow-up #%d", newCount))

	s.checkBounce(ctx, rec, result.MessageID)
}

// checkBounce runs the best-effort bounce inspection after a successful
// send. A detected bounce overrides the status just written by the
// follow-up update.
func (s *FollowupService) checkBounce(ctx context.Context, rec *application.Record, messageID string) {
	bounce := s.mailer.CheckBounces(ctx, messageID)
	if bounce == nil {
		return
	}
	s.log.WithFields(logrus.Fields{
		"id":    rec.ID,
		"email": rec.Email,
	}).Warnf("Bounce detected: %s", bounce.Reason)
	if err := s.repo.UpdateStatus(ctx, rec.ID, rec.Language, application.StatusBounced); err != nil {
		s.log.Errorf("Mark %s bounced failed: %v", rec.ID, err)
	}
	s.appendActivity(ctx, rec, application.ActionBounceDetected, application.ResultBounced, bounce.Reason)
}

// skip records a precondition failure. Skip reasons go to the audit trail,
// not to the returned error list: skips and failures are distinct outcome
// categories.
func (s *FollowupService) skip(ctx context.Context, rec *application.Record, reason string, dryRun bool, stats *RunStats) {
	stats.Skipped++
	s.log.WithFields(logrus.Fields{
		"id":    rec.ID,
		"email": rec.Email,
	}).Warnf("Follow-up skipped: %s", reason)
	if !dryRun {
		s.appendActivity(ctx, rec, application.ActionFollowupSkipped, application.ResultFailed, reason)
	}
}

func (s *FollowupService) fail(ctx context.Context, rec *application.Record, err error, stats *RunStats) {
	stats.Failed++
	stats.Errors = append(stats.Errors, RunError{Email: rec.Email, Reason: err.Error()})
	s.log.WithFields(logrus.Fields{
		"id":    rec.ID,
		"email": rec.Email,
	}).Errorf("Follow-up failed: %v", err)
	s.appendActivity(ctx, rec, application.ActionFollowupFailed, application.ResultFailed, err.Error())
}

// appendActivity writes an audit row. Activity is best-effort: a logging
// failure must not turn a successful send into a failed record.
func (s *FollowupService) appendActivity(ctx context.Context, rec *application.Record, action, result, details string) {
	err := s.repo.AppendActivity(ctx, application.ActivityEntry{
		ApplicationID: rec.ID,
		Email:         rec.Email,
		Action:        action,
		Result:        result,
		Details:       details,
	})
	if err != nil {
		s.log.Errorf("Append activity for %s failed: %v", rec.ID, err)
	}
}
