package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	// Google Sheets
	SpreadsheetID string
	SheetEN       string
	SheetFR       string
	SheetActivity string

	// Authentication: "oauth" or "service_account"
	AuthMode             string
	OAuthCredentialsPath string
	OAuthTokenPath       string
	ServiceAccountPath   string

	// Email
	GmailUserEmail    string
	SenderDisplayName string
	EmailDelaySeconds int
	MaxRetries        int

	// Follow-up scheduling
	FollowupDays int
	Timezone     string

	// Attachments
	AttachmentFolderEN string
	AttachmentFolderFR string

	// Directory for local JSON stores (settings, templates)
	DataDir string

	// Web server + scheduler
	HTTPListenAddr    string
	CronSpecFollowups string

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and a .env file (if
// present). godotenv does not override variables already set in the
// environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.SpreadsheetID = os.Getenv("SPREADSHEET_ID")
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is not set")
	}

	cfg.SheetEN = getEnvDefault("SHEET_EN", "Applications_EN")
	cfg.SheetFR = getEnvDefault("SHEET_FR", "Applications_FR")
	cfg.SheetActivity = getEnvDefault("SHEET_ACTIVITY", "Activity_Log")

	cfg.AuthMode = strings.ToLower(getEnvDefault("AUTH_MODE", "oauth"))
	if cfg.AuthMode != "oauth" && cfg.AuthMode != "service_account" {
		return nil, fmt.Errorf("invalid AUTH_MODE %q: must be oauth or service_account", cfg.AuthMode)
	}
	cfg.OAuthCredentialsPath = getEnvDefault("OAUTH_CREDENTIALS_PATH", "credentials/oauth_credentials.json")
	cfg.OAuthTokenPath = getEnvDefault("OAUTH_TOKEN_PATH", "credentials/token.json")
	cfg.ServiceAccountPath = getEnvDefault("SERVICE_ACCOUNT_PATH", "credentials/service_account.json")

	cfg.GmailUserEmail = os.Getenv("GMAIL_USER_EMAIL")
	if cfg.GmailUserEmail == "" {
		return nil, fmt.Errorf("GMAIL_USER_EMAIL is not set")
	}
	cfg.SenderDisplayName = getEnvDefault("SENDER_DISPLAY_NAME", cfg.GmailUserEmail)

	var err error
	cfg.EmailDelaySeconds, err = getEnvInt("DEFAULT_DELAY_BETWEEN_EMAILS", 2)
	if err != nil {
		return nil, err
	}
	cfg.MaxRetries, err = getEnvInt("MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	cfg.FollowupDays, err = getEnvInt("FOLLOWUP_DAYS", 7)
	if err != nil {
		return nil, err
	}

	cfg.Timezone = getEnvDefault("TIMEZONE", "Europe/Paris")

	cfg.AttachmentFolderEN = getEnvDefault("ATTACHMENT_FOLDER_EN", "attachments/en")
	cfg.AttachmentFolderFR = getEnvDefault("ATTACHMENT_FOLDER_FR", "attachments/fr")

	cfg.DataDir = getEnvDefault("DATA_DIR", "data")

	cfg.HTTPListenAddr = getEnvDefault("HTTP_LISTEN_ADDR", ":8000")
	cfg.CronSpecFollowups = getEnvDefault("CRON_SPEC_FOLLOWUPS", "0 9 * * *") // 9 AM daily

	cfg.LogLevel = strings.ToLower(getEnvDefault("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnvDefault("ENVIRONMENT", "development"))

	return cfg, nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
