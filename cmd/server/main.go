package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"jobflow/internal/app"
	"jobflow/internal/infra/attachments"
	"jobflow/internal/infra/config"
	"jobflow/internal/infra/export"
	gmailinfra "jobflow/internal/infra/gmail"
	"jobflow/internal/infra/googleauth"
	"jobflow/internal/infra/logger"
	"jobflow/internal/infra/scheduler"
	"jobflow/internal/infra/settings"
	sheetsinfra "jobflow/internal/infra/sheets"
	"jobflow/internal/infra/templates"
	"jobflow/internal/infra/web"
	"jobflow/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := googleauth.NewHTTPClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Google auth failed: %v", err)
	}
	sheetsSvc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		log.Fatalf("Create Sheets client failed: %v", err)
	}
	gmailSvc, err := gmailapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		log.Fatalf("Create Gmail client failed: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Unknown timezone %q: %v", cfg.Timezone, err)
	}
	policy := schedule.New(loc, cfg.FollowupDays)

	repo := sheetsinfra.NewApplicationRepository(
		sheetsSvc, cfg.SpreadsheetID, cfg.SheetEN, cfg.SheetFR, cfg.SheetActivity, policy)
	if err := repo.InitializeSheets(ctx); err != nil {
		log.Fatalf("Initialize sheets failed: %v", err)
	}

	mailer := gmailinfra.NewMailer(
		gmailSvc, cfg.GmailUserEmail, cfg.SenderDisplayName,
		cfg.EmailDelaySeconds, cfg.MaxRetries, log)
	resolver := attachments.NewFolderResolver(cfg.AttachmentFolderEN, cfg.AttachmentFolderFR)

	tpls, err := templates.NewManager(cfg.DataDir)
	if err != nil {
		log.Fatalf("Open template store failed: %v", err)
	}
	settingsStore, err := settings.NewStore(cfg.DataDir, settings.Settings{
		DefaultLanguage: "en",
		FollowupDays:    cfg.FollowupDays,
		Timezone:        cfg.Timezone,
		EmailDelay:      cfg.EmailDelaySeconds,
		MaxRetries:      cfg.MaxRetries,
	})
	if err != nil {
		log.Fatalf("Open settings store failed: %v", err)
	}

	followups := app.NewFollowupService(repo, mailer, resolver, policy, log)
	sender := app.NewSendService(repo, mailer, resolver, tpls, log)
	analytics := app.NewAnalyticsService(repo, policy, log)
	exporter := export.NewExporter(repo)

	sched := scheduler.New(followups, settingsStore, log)
	if err := sched.Start(cfg.CronSpecFollowups); err != nil {
		log.Fatalf("Start scheduler failed: %v", err)
	}
	defer sched.Stop()

	srv := web.NewServer(
		cfg.HTTPListenAddr, repo, followups, sender, analytics,
		resolver, tpls, settingsStore, exporter, log)
	go func() {
		if err := srv.Start(); err != nil {
			log.Errorf("HTTP server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP shutdown failed: %v", err)
	}
}
