package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobflow/internal/domain/application"
	"jobflow/internal/domain/mail"
	"jobflow/internal/infra/templates"
)

func newSendFixture(t *testing.T) (*SendService, *mockRepository, *mockMailer) {
	t.Helper()
	tpls, err := templates.NewManager(t.TempDir())
	require.NoError(t, err)
	repo := newMockRepository()
	mailer := &mockMailer{}
	return NewSendService(repo, mailer, newMockResolver(), tpls, testLogger()), repo, mailer
}

func TestSendApplicationsHappyPath(t *testing.T) {
	svc, repo, mailer := newSendFixture(t)

	stats, err := svc.SendApplications(context.Background(), []ApplicationInput{{
		Email:    "jobs@acme.example",
		Company:  "Acme",
		Position: "Backend Engineer",
		Language: application.LanguageEN,
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Application for Backend Engineer at Acme", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "Acme")
	assert.NotContains(t, mailer.sent[0].Body, "[Company]")
	assert.Equal(t, "/attachments/en/cv_en.pdf", mailer.sent[0].AttachmentPath)

	require.Len(t, repo.added, 1)
	assert.NotEmpty(t, repo.added[0].ID)
	require.Len(t, repo.sentCalls, 1)
	assert.Equal(t, "cv_en.pdf", repo.sentCalls[0].cv)
	assert.Contains(t, repo.actions(), application.ActionEmailSent)
}

func TestSendApplicationsPlaceholderDefaults(t *testing.T) {
	svc, _, mailer := newSendFixture(t)

	_, err := svc.SendApplications(context.Background(), []ApplicationInput{{
		Email:    "jobs@acme.example",
		Language: application.LanguageFR,
	}})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Subject, "votre entreprise")
	assert.Contains(t, mailer.sent[0].Subject, "Développeur")
	assert.Equal(t, "/attachments/fr/cv_fr.pdf", mailer.sent[0].AttachmentPath)
}

func TestSendApplicationsInvalidEmailSkipped(t *testing.T) {
	svc, repo, mailer := newSendFixture(t)

	stats, err := svc.SendApplications(context.Background(), []ApplicationInput{
		{Email: "broken", Language: application.LanguageEN},
		{Email: "jobs@acme.example", Language: application.LanguageEN},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Sent)
	assert.Len(t, repo.added, 1, "no record is created for an invalid address")
	assert.Len(t, mailer.sent, 1)
}

func TestSendApplicationsSendFailureMarksFailed(t *testing.T) {
	svc, repo, mailer := newSendFixture(t)
	mailer.sendErr = fmt.Errorf("gmail: rate limited")

	stats, err := svc.SendApplications(context.Background(), []ApplicationInput{{
		Email:    "jobs@acme.example",
		Language: application.LanguageEN,
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	require.Len(t, repo.statusCalls, 1)
	assert.Equal(t, application.StatusFailed, repo.statusCalls[0].status)
	assert.Contains(t, repo.actions(), application.ActionEmailFailed)
	assert.Empty(t, repo.sentCalls)
}

func TestSendApplicationsUnknownAttachmentSkipped(t *testing.T) {
	svc, repo, mailer := newSendFixture(t)

	stats, err := svc.SendApplications(context.Background(), []ApplicationInput{{
		Email:    "jobs@acme.example",
		CV:       "ghost.pdf",
		Language: application.LanguageEN,
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, repo.added)
	assert.Empty(t, mailer.sent)
}

func TestSendApplicationsBounceOverride(t *testing.T) {
	svc, repo, mailer := newSendFixture(t)
	mailer.bounce = &mail.BounceInfo{Reason: "delivery failed"}

	_, err := svc.SendApplications(context.Background(), []ApplicationInput{{
		Email:    "jobs@acme.example",
		Language: application.LanguageEN,
	}})
	require.NoError(t, err)

	require.Len(t, repo.statusCalls, 1)
	assert.Equal(t, application.StatusBounced, repo.statusCalls[0].status)
	assert.Contains(t, repo.actions(), application.ActionBounceDetected)
}

func TestAddDraft(t *testing.T) {
	svc, repo, mailer := newSendFixture(t)

	rec, err := svc.AddDraft(context.Background(), ApplicationInput{
		Email:    "jobs@acme.example",
		Company:  "Acme",
		Language: application.LanguageFR,
	})
	require.NoError(t, err)

	assert.Equal(t, application.StatusDraft, rec.Status)
	assert.Equal(t, "cv_fr.pdf", rec.Attachment)
	assert.NotEmpty(t, rec.ID)
	assert.Empty(t, mailer.sent, "drafts are never sent")
	assert.Contains(t, repo.actions(), application.ActionApplicationAdded)
}

func TestAddDraftRejectsInvalidEmail(t *testing.T) {
	svc, repo, _ := newSendFixture(t)

	_, err := svc.AddDraft(context.Background(), ApplicationInput{Email: "broken"})
	require.Error(t, err)
	assert.True(t, mail.IsValidation(err))
	assert.Empty(t, repo.added)
}
