// Package templates manages reusable email templates persisted as a local
// JSON file. Placeholders [Company] and [Position] are substituted at send
// time by the application services.
package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"jobflow/internal/domain/application"
)

// Custom errors
var ErrTemplateNotFound = fmt.Errorf("template not found")

const (
	CategoryApplication = "application"
	CategoryFollowup    = "followup"
)

// Template is one stored email template for a category and language.
type Template struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// store is category -> language -> templates.
type store map[string]map[string][]Template

// Manager loads, serves and persists templates. All operations are safe for
// concurrent use; every mutation is flushed to disk before returning.
type Manager struct {
	mu   sync.Mutex
	path string
	data store
}

func NewManager(dataDir string) (*Manager, error) {
	m := &Manager{path: filepath.Join(dataDir, "templates.json")}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	raw, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.data = defaultTemplates()
		return m.persist()
	}
	if err != nil {
		return fmt.Errorf("read templates file: %w", err)
	}
	if err := json.Unmarshal(raw, &m.data); err != nil {
		return fmt.Errorf("parse templates file %s: %w", m.path, err)
	}
	return nil
}

func (m *Manager) persist() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	raw, err := json.MarshalIndent(m.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode templates: %w", err)
	}
	if err := os.WriteFile(m.path, raw, 0o644); err != nil {
		return fmt.Errorf("write templates file: %w", err)
	}
	return nil
}

// List returns the templates for a category and language.
func (m *Manager) List(category string, lang application.Language) []Template {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Template, len(m.data[category][string(lang)]))
	copy(out, m.data[category][string(lang)])
	return out
}

// Get returns a template by name.
func (m *Manager) Get(category string, lang application.Language, name string) (Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tpl := range m.data[category][string(lang)] {
		if tpl.Name == name {
			return tpl, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s/%s/%s", ErrTemplateNotFound, category, lang, name)
}

// Save inserts a template, or replaces the one with the same name.
func (m *Manager) Save(category string, lang application.Language, tpl Template) error {
	if tpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[category] == nil {
		m.data[category] = map[string][]Template{}
	}
	list := m.data[category][string(lang)]
	replaced := false
	for i, existing := range list {
		if existing.Name == tpl.Name {
			list[i] = tpl
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, tpl)
	}
	m.data[category][string(lang)] = list
	return m.persist()
}

// Delete removes a template by name.
func (m *Manager) Delete(category string, lang application.Language, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.data[category][string(lang)]
	for i, tpl := range list {
		if tpl.Name == name {
			m.data[category][string(lang)] = append(list[:i], list[i+1:]...)
			return m.persist()
		}
	}
	return fmt.Errorf("%w: %s/%s/%s", ErrTemplateNotFound, category, lang, name)
}

func defaultTemplates() store {
	return store{
		CategoryApplication: {
			string(application.LanguageEN): {{
				Name:    "default",
				Subject: "Application for [Position] at [Company]",
				Body: "Dear Hiring Team at [Company],\n\n" +
					"I am writing to apply for the [Position] position. " +
					"Please find my CV attached.\n\n" +
					"I would welcome the opportunity to discuss how my experience fits your needs.\n\n" +
					"Best regards",
			}},
			string(application.LanguageFR): {{
				Name:    "default",
				Subject: "Candidature au poste de [Position] chez [Company]",
				Body: "Madame, Monsieur,\n\n" +
					"Je me permets de vous adresser ma candidature pour le poste de [Position]. " +
					"Vous trouverez mon CV en pièce jointe.\n\n" +
					"Je reste à votre disposition pour un entretien.\n\n" +
					"Cordialement",
			}},
		},
		CategoryFollowup: {
			string(application.LanguageEN): {{
				Name:    "default",
				Subject: "Following up on my application - [Company]",
				Body: "Dear Hiring Team at [Company],\n\n" +
					"I recently applied for the [Position] position and wanted to follow up " +
					"on the status of my application. I remain very interested in the role.\n\n" +
					"Best regards",
			}},
			string(application.LanguageFR): {{
				Name:    "default",
				Subject: "Relance de ma candidature - [Company]",
				Body: "Madame, Monsieur,\n\n" +
					"Je me permets de revenir vers vous concernant ma candidature " +
					"au poste de [Position]. Je reste très intéressé par ce poste.\n\n" +
					"Cordialement",
			}},
		},
	}
}
