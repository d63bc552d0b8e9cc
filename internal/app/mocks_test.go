package app

import (
	"context"
	"fmt"

	"jobflow/internal/domain/application"
	"jobflow/internal/domain/attachment"
	"jobflow/internal/domain/mail"
)

type followupCall struct {
	id       string
	lang     application.Language
	newCount int
}

type statusCall struct {
	id     string
	lang   application.Language
	status application.Status
}

type sentCall struct {
	id       string
	lang     application.Language
	body, cv string
}

// mockRepository is an in-memory application.Repository test double.
type mockRepository struct {
	records map[application.Language][]*application.Record
	listErr map[application.Language]error

	added             []*application.Record
	addErr            error
	followupCalls     []followupCall
	updateFollowupErr error
	sentCalls         []sentCall
	updateSentErr     error
	statusCalls       []statusCall
	activity          []application.ActivityEntry
	activityErr       error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		records: map[application.Language][]*application.Record{},
		listErr: map[application.Language]error{},
	}
}

func (m *mockRepository) InitializeSheets(ctx context.Context) error { return nil }

func (m *mockRepository) Add(ctx context.Context, rec *application.Record) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, rec)
	m.records[rec.Language] = append(m.records[rec.Language], rec)
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string, lang application.Language) (*application.Record, error) {
	for _, rec := range m.records[lang] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("not found: %s", id)
}

func (m *mockRepository) ListAll(ctx context.Context, lang application.Language) ([]*application.Record, error) {
	if err := m.listErr[lang]; err != nil {
		return nil, err
	}
	return m.records[lang], nil
}

func (m *mockRepository) ListDueCandidates(ctx context.Context, lang application.Language) ([]*application.Record, error) {
	if err := m.listErr[lang]; err != nil {
		return nil, err
	}
	var out []*application.Record
	for _, rec := range m.records[lang] {
		if application.IsTerminalExcluded(rec.Status) || rec.NextFollowupDate == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockRepository) UpdateSent(ctx context.Context, id string, lang application.Language, body, cv string) error {
	if m.updateSentErr != nil {
		return m.updateSentErr
	}
	m.sentCalls = append(m.sentCalls, sentCall{id: id, lang: lang, body: body, cv: cv})
	return nil
}

func (m *mockRepository) UpdateFollowup(ctx context.Context, id string, lang application.Language, newCount int) error {
	if m.updateFollowupErr != nil {
		return m.updateFollowupErr
	}
	m.followupCalls = append(m.followupCalls, followupCall{id: id, lang: lang, newCount: newCount})
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, lang application.Language, status application.Status) error {
	m.statusCalls = append(m.statusCalls, statusCall{id: id, lang: lang, status: status})
	return nil
}

func (m *mockRepository) UpdateFields(ctx context.Context, id string, lang application.Language, fields application.FieldUpdate) error {
	return nil
}

func (m *mockRepository) AppendActivity(ctx context.Context, entry application.ActivityEntry) error {
	if m.activityErr != nil {
		return m.activityErr
	}
	m.activity = append(m.activity, entry)
	return nil
}

func (m *mockRepository) ListActivity(ctx context.Context, limit int) ([]application.ActivityEntry, error) {
	return m.activity, nil
}

func (m *mockRepository) actions() []string {
	out := make([]string, 0, len(m.activity))
	for _, entry := range m.activity {
		out = append(out, entry.Action)
	}
	return out
}

// mockMailer records sends and simulates failures and bounces.
type mockMailer struct {
	sendErr error
	bounce  *mail.BounceInfo

	sent         []mail.Message
	bounceChecks int
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) (*mail.SendResult, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, msg)
	return &mail.SendResult{MessageID: fmt.Sprintf("msg-%d", len(m.sent))}, nil
}

func (m *mockMailer) SendWithDelay(ctx context.Context, msg mail.Message) (*mail.SendResult, error) {
	return m.Send(ctx, msg)
}

func (m *mockMailer) CheckBounces(ctx context.Context, messageID string) *mail.BounceInfo {
	m.bounceChecks++
	return m.bounce
}

// mockResolver serves a fixed filename -> path map per language.
type mockResolver struct {
	files map[application.Language]map[string]string
}

func newMockResolver() *mockResolver {
	return &mockResolver{files: map[application.Language]map[string]string{
		application.LanguageEN: {"cv_en.pdf": "/attachments/en/cv_en.pdf"},
		application.LanguageFR: {"cv_fr.pdf": "/attachments/fr/cv_fr.pdf"},
	}}
}

func (m *mockResolver) Resolve(lang application.Language, filename string) (string, bool) {
	path, ok := m.files[lang][filename]
	return path, ok
}

func (m *mockResolver) List(lang application.Language) ([]attachment.Info, error) {
	var infos []attachment.Info
	for name, path := range m.files[lang] {
		infos = append(infos, attachment.Info{Name: name, Path: path})
	}
	return infos, nil
}
