// Package googleauth builds authenticated HTTP clients for the Google APIs
// this tool depends on (Sheets and Gmail). Two modes are supported: an
// installed-app OAuth flow with a cached token file, and a service account
// key. Service accounts can read and write spreadsheets but cannot send
// Gmail on behalf of a user, so the server refuses to send mail in that mode.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"jobflow/internal/infra/config"
)

// Scopes requested for both auth modes.
var scopes = []string{
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/spreadsheets",
}

// NewHTTPClient returns an authenticated *http.Client for the configured
// auth mode. In OAuth mode a cached token is required; run Authorize first
// when none exists.
func NewHTTPClient(ctx context.Context, cfg *config.AppConfig) (*http.Client, error) {
	switch cfg.AuthMode {
	case "service_account":
		return serviceAccountClient(ctx, cfg.ServiceAccountPath)
	case "oauth":
		return oauthClient(ctx, cfg.OAuthCredentialsPath, cfg.OAuthTokenPath)
	default:
		return nil, fmt.Errorf("invalid auth mode: %s", cfg.AuthMode)
	}
}

func serviceAccountClient(ctx context.Context, keyPath string) (*http.Client, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read service account key %s: %w", keyPath, err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return jwtCfg.Client(ctx), nil
}

func oauthClient(ctx context.Context, credentialsPath, tokenPath string) (*http.Client, error) {
	oauthCfg, err := loadOAuthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}
	token, err := loadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("no cached OAuth token at %s (run the authorize command first): %w", tokenPath, err)
	}
	// TokenSource transparently refreshes expired tokens using the refresh
	// token; persist the refreshed value so the next run skips the round trip.
	src := oauthCfg.TokenSource(ctx, token)
	fresh, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh OAuth token: %w", err)
	}
	if fresh.AccessToken != token.AccessToken {
		if err := saveToken(tokenPath, fresh); err != nil {
			return nil, err
		}
	}
	return oauth2.NewClient(ctx, src), nil
}

// Authorize runs the manual installed-app flow: it prints the consent URL,
// reads the authorization code from readCode and caches the exchanged token.
func Authorize(ctx context.Context, cfg *config.AppConfig, readCode func(authURL string) (string, error)) error {
	oauthCfg, err := loadOAuthConfig(cfg.OAuthCredentialsPath)
	if err != nil {
		return err
	}
	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := readCode(authURL)
	if err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}
	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return saveToken(cfg.OAuthTokenPath, token)
}

func loadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read OAuth client credentials %s: %w", credentialsPath, err)
	}
	oauthCfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client credentials: %w", err)
	}
	return oauthCfg, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	return nil
}
