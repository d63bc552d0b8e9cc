package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobflow/internal/domain/application"
)

type stubRepo struct {
	application.Repository
	records  map[application.Language][]*application.Record
	activity []application.ActivityEntry
}

func (s *stubRepo) ListAll(ctx context.Context, lang application.Language) ([]*application.Record, error) {
	return s.records[lang], nil
}

func (s *stubRepo) ListActivity(ctx context.Context, limit int) ([]application.ActivityEntry, error) {
	return s.activity, nil
}

func TestApplicationsCSV(t *testing.T) {
	repo := &stubRepo{records: map[application.Language][]*application.Record{
		application.LanguageEN: {{
			ID: "id-1", Company: "Acme, Inc.", Email: "jobs@acme.example",
			Status: application.StatusSent, Followups: 2, Language: application.LanguageEN,
		}},
		application.LanguageFR: {{
			ID: "id-2", Company: "Globex", Email: "rh@globex.example",
			Status: application.StatusDraft, Language: application.LanguageFR,
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, NewExporter(repo).Applications(context.Background(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per partition")
	assert.Equal(t, applicationHeader, rows[0])
	assert.Equal(t, "Acme, Inc.", rows[1][2], "commas survive quoting")
	assert.Equal(t, "2", rows[1][7])
	assert.Equal(t, "fr", rows[2][1])
}

func TestActivityCSV(t *testing.T) {
	repo := &stubRepo{activity: []application.ActivityEntry{{
		Timestamp: "2025-06-01T09:00:00Z", ApplicationID: "id-1",
		Email: "jobs@acme.example", Action: application.ActionFollowupSent,
		Result: application.ResultSuccess, Details: "follow-up #1",
	}}}

	var buf bytes.Buffer
	require.NoError(t, NewExporter(repo).Activity(context.Background(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, activityHeader, rows[0])
	assert.Equal(t, "followup_sent", rows[1][3])
}
