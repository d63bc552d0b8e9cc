// Package settings persists runtime-tunable options as a local JSON file.
// Environment configuration covers deployment concerns; these are the knobs
// a user flips while the service runs.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings are the user-adjustable runtime options.
type Settings struct {
	DefaultLanguage string `json:"default_language"`
	FollowupDays    int    `json:"followup_days"`
	Timezone        string `json:"timezone"`
	EmailDelay      int    `json:"email_delay"`
	MaxRetries      int    `json:"max_retries"`
	AutoFollowup    bool   `json:"auto_followup"`
}

// Store loads and persists settings, guarding concurrent access from the web
// handlers and the scheduler.
type Store struct {
	mu       sync.RWMutex
	path     string
	current  Settings
	fallback Settings
}

// NewStore opens (or seeds) the settings file. defaults fills any missing
// field and becomes the full content when no file exists yet.
func NewStore(dataDir string, defaults Settings) (*Store, error) {
	s := &Store{
		path:     filepath.Join(dataDir, "settings.json"),
		fallback: defaults,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.current = s.fallback
		return s.persist()
	}
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}
	loaded := s.fallback
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("parse settings file %s: %w", s.path, err)
	}
	s.current = normalize(loaded, s.fallback)
	return nil
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	raw, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the settings and flushes them to disk. Out-of-range values
// are clamped back to the stored defaults.
func (s *Store) Update(next Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = normalize(next, s.fallback)
	if err := s.persist(); err != nil {
		return Settings{}, err
	}
	return s.current, nil
}

func normalize(in, fallback Settings) Settings {
	if in.DefaultLanguage != "en" && in.DefaultLanguage != "fr" {
		in.DefaultLanguage = fallback.DefaultLanguage
	}
	if in.FollowupDays < 1 {
		in.FollowupDays = fallback.FollowupDays
	}
	if in.Timezone == "" {
		in.Timezone = fallback.Timezone
	}
	if in.EmailDelay < 0 {
		in.EmailDelay = fallback.EmailDelay
	}
	if in.MaxRetries < 1 {
		in.MaxRetries = fallback.MaxRetries
	}
	return in
}
