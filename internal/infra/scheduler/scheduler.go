// Package scheduler runs the automatic follow-up cycle on a cron spec.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"jobflow/internal/app"
	"jobflow/internal/infra/settings"
)

// Each scheduled run gets a bounded window; a wedged Sheets or Gmail call
// must not leak a goroutine until the next tick.
const runTimeout = 15 * time.Minute

// Scheduler triggers batch follow-up runs. The auto_followup setting is
// consulted at every tick, so flipping it takes effect without a restart.
type Scheduler struct {
	cron      *cron.Cron
	followups *app.FollowupService
	settings  *settings.Store
	log       *logrus.Logger
}

func New(followups *app.FollowupService, settingsStore *settings.Store, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		followups: followups,
		settings:  settingsStore,
		log:       log,
	}
}

// Start registers the follow-up job and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Infof("Follow-up scheduler started with spec %q", spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Follow-up scheduler stopped")
}

func (s *Scheduler) run() {
	if !s.settings.Get().AutoFollowup {
		s.log.Debug("Auto follow-up disabled, skipping scheduled run")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	stats, err := s.followups.ProcessFollowups(ctx, "both", false)
	if err != nil {
		s.log.Errorf("Scheduled follow-up run failed: %v", err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"sent":    stats.Sent,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	}).Info("Scheduled follow-up run finished")
}
