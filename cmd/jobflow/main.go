package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"jobflow/internal/app"
	"jobflow/internal/domain/application"
	"jobflow/internal/infra/attachments"
	"jobflow/internal/infra/config"
	"jobflow/internal/infra/export"
	gmailinfra "jobflow/internal/infra/gmail"
	"jobflow/internal/infra/googleauth"
	"jobflow/internal/infra/logger"
	sheetsinfra "jobflow/internal/infra/sheets"
	"jobflow/internal/infra/templates"
	"jobflow/internal/schedule"
)

// env bundles the wired dependencies a command needs.
type env struct {
	cfg       *config.AppConfig
	log       *logrus.Logger
	repo      *sheetsinfra.ApplicationRepository
	followups *app.FollowupService
	sender    *app.SendService
	exporter  *export.Exporter
}

func newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	client, err := googleauth.NewHTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sheetsSvc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create Sheets client: %w", err)
	}
	gmailSvc, err := gmailapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create Gmail client: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", cfg.Timezone, err)
	}
	policy := schedule.New(loc, cfg.FollowupDays)

	repo := sheetsinfra.NewApplicationRepository(
		sheetsSvc, cfg.SpreadsheetID, cfg.SheetEN, cfg.SheetFR, cfg.SheetActivity, policy)
	mailer := gmailinfra.NewMailer(
		gmailSvc, cfg.GmailUserEmail, cfg.SenderDisplayName,
		cfg.EmailDelaySeconds, cfg.MaxRetries, log)
	resolver := attachments.NewFolderResolver(cfg.AttachmentFolderEN, cfg.AttachmentFolderFR)
	tpls, err := templates.NewManager(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:       cfg,
		log:       log,
		repo:      repo,
		followups: app.NewFollowupService(repo, mailer, resolver, policy, log),
		sender:    app.NewSendService(repo, mailer, resolver, tpls, log),
		exporter:  export.NewExporter(repo),
	}, nil
}

func main() {
	root := &cobra.Command{
		Use:           "jobflow",
		Short:         "Job application outreach: tracked sends and follow-ups",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitCmd(),
		newAuthorizeCmd(),
		newSendCmd(),
		newAddCmd(),
		newFollowupsCmd(),
		newStatusCmd(),
		newExportCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the sheet headers if they are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			if err := e.repo.InitializeSheets(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Sheets initialized.")
			return nil
		},
	}
}

func newAuthorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authorize",
		Short: "Run the OAuth consent flow and cache the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			err = googleauth.Authorize(cmd.Context(), cfg, func(authURL string) (string, error) {
				fmt.Printf("Open the following URL in a browser and paste the code:\n\n%s\n\nCode: ", authURL)
				reader := bufio.NewReader(os.Stdin)
				code, err := reader.ReadString('\n')
				if err != nil {
					return "", err
				}
				return strings.TrimSpace(code), nil
			})
			if err != nil {
				return err
			}
			fmt.Println("Token saved.")
			return nil
		},
	}
}

func inputFlags(cmd *cobra.Command, input *app.ApplicationInput, language *string) {
	cmd.Flags().StringVar(&input.Email, "email", "", "recipient email address (required)")
	cmd.Flags().StringVar(&input.Company, "company", "", "company name")
	cmd.Flags().StringVar(&input.Position, "position", "", "position title")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&input.Website, "website", "", "company website")
	cmd.Flags().StringVar(&input.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&input.CV, "cv", "", "CV filename (defaults per language)")
	cmd.Flags().StringVar(language, "language", "en", "partition: en or fr")
	_ = cmd.MarkFlagRequired("email")
}

func newSendCmd() *cobra.Command {
	var input app.ApplicationInput
	var language string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Create a record and send the application email",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			input.Language = application.Language(language)
			stats, err := e.sender.SendApplications(cmd.Context(), []app.ApplicationInput{input})
			if err != nil {
				return err
			}
			printStats(stats)
			return nil
		},
	}
	inputFlags(cmd, &input, &language)
	cmd.Flags().StringVar(&input.Template, "template", "", "template name (default: default)")
	return cmd
}

func newAddCmd() *cobra.Command {
	var input app.ApplicationInput
	var language string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a draft record without sending anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			input.Language = application.Language(language)
			rec, err := e.sender.AddDraft(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Printf("Draft added: %s (%s)\n", rec.ID, rec.Email)
			return nil
		},
	}
	inputFlags(cmd, &input, &language)
	return cmd
}

func newFollowupsCmd() *cobra.Command {
	var partition string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "followups",
		Short: "Send due follow-ups",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := e.followups.ProcessFollowups(cmd.Context(), partition, dryRun)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Println("Dry run: nothing was sent or written.")
			}
			printStats(stats)
			return nil
		},
	}
	cmd.Flags().StringVar(&partition, "partition", "both", "partition: en, fr or both")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without sending")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List tracked applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			languages := []application.Language{application.LanguageEN, application.LanguageFR}
			if language != "" {
				languages = []application.Language{application.Language(language)}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOMPANY\tEMAIL\tSTATUS\tFOLLOWUPS\tNEXT FOLLOWUP")
			for _, lang := range languages {
				records, err := e.repo.ListAll(cmd.Context(), lang)
				if err != nil {
					return err
				}
				for _, rec := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
						shortID(rec.ID), rec.Company, rec.Email, rec.Status,
						rec.Followups, rec.NextFollowupDate)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "limit to one partition: en or fr")
	return cmd
}

func newExportCmd() *cobra.Command {
	var kind, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export applications or activity as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			switch kind {
			case "applications":
				err = e.exporter.Applications(cmd.Context(), f)
			case "activity":
				err = e.exporter.Activity(cmd.Context(), f)
			default:
				return fmt.Errorf("unknown export type %q", kind)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Exported %s to %s\n", kind, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "applications", "applications or activity")
	cmd.Flags().StringVar(&out, "out", "export.csv", "output file")
	return cmd
}

func printStats(stats *app.RunStats) {
	fmt.Printf("Sent: %d  Skipped: %d  Failed: %d\n", stats.Sent, stats.Skipped, stats.Failed)
	for _, e := range stats.Errors {
		if e.Email != "" {
			fmt.Printf("  %s: %s\n", e.Email, e.Reason)
			continue
		}
		fmt.Printf("  %s\n", e.Reason)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
