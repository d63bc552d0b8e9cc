package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"jobflow/internal/domain/application"
	"jobflow/internal/domain/attachment"
	"jobflow/internal/domain/mail"
	"jobflow/internal/infra/templates"
)

// ApplicationInput describes one outreach target for an initial send or a
// draft. Blank Company/Position fall back to language defaults during
// placeholder substitution.
type ApplicationInput struct {
	Email    string               `json:"email"`
	Company  string               `json:"company"`
	Position string               `json:"position"`
	Phone    string               `json:"phone,omitempty"`
	Website  string               `json:"website,omitempty"`
	Notes    string               `json:"notes,omitempty"`
	CV       string               `json:"cv,omitempty"`
	Template string               `json:"template,omitempty"`
	Language application.Language `json:"language"`
}

// SendService handles initial application sends and draft creation.
type SendService struct {
	repo      application.Repository
	mailer    mail.Mailer
	resolver  attachment.Resolver
	templates *templates.Manager
	log       *logrus.Logger
}

func NewSendService(
	repo application.Repository,
	mailer mail.Mailer,
	resolver attachment.Resolver,
	tpls *templates.Manager,
	log *logrus.Logger,
) *SendService {
	return &SendService{
		repo:      repo,
		mailer:    mailer,
		resolver:  resolver,
		templates: tpls,
		log:       log,
	}
}

// SendApplications creates a record for each input and sends the application
// email. Inputs are processed strictly sequentially; one failure never
// aborts the rest of the batch.
func (s *SendService) SendApplications(ctx context.Context, inputs []ApplicationInput) (*RunStats, error) {
	stats := &RunStats{}
	for i := range inputs {
		s.sendOne(ctx, &inputs[i], stats)
	}
	return stats, nil
}

func (s *SendService) sendOne(ctx context.Context, input *ApplicationInput, stats *RunStats) {
	input.Language = normalizeLanguage(input.Language)

	if !mail.ValidAddress(input.Email) {
		stats.Skipped++
		stats.Errors = append(stats.Errors, RunError{Email: input.Email, Reason: "Invalid email address"})
		s.log.Warnf("Send skipped for %q: invalid email address", input.Email)
		return
	}

	tpl, err := s.lookupTemplate(templates.CategoryApplication, input)
	if err != nil {
		stats.Skipped++
		stats.Errors = append(stats.Errors, RunError{Email: input.Email, Reason: err.Error()})
		s.log.Warnf("Send skipped for %s: %v", input.Email, err)
		return
	}

	cvName := input.CV
	if cvName == "" {
		cvName = defaultCV[input.Language]
	}
	cvPath, ok := s.resolver.Resolve(input.Language, cvName)
	if !ok {
		stats.Skipped++
		stats.Errors = append(stats.Errors, RunError{Email: input.Email, Reason: "Attachment not found: " + cvName})
		s.log.Warnf("Send skipped for %s: attachment %q not found", input.Email, cvName)
		return
	}

	subject := substitutePlaceholders(tpl.Subject, input.Company, input.Position, input.Language)
	body := substitutePlaceholders(tpl.Body, input.Company, input.Position, input.Language)

	rec := s.newRecord(input, application.StatusPending)
	if err := s.repo.Add(ctx, rec); err != nil {
		stats.Failed++
		stats.Errors = append(stats.Errors, RunError{Email: input.Email, Reason: err.Error()})
		s.log.Errorf("Create record for %s failed: %v", input.Email, err)
		return
	}

	result, err := s.mailer.SendWithDelay(ctx, mail.Message{
		To:             rec.Email,
		Subject:        subject,
		Body:           body,
		AttachmentPath: cvPath,
	})
	if err != nil {
		stats.Failed++
		stats.Errors = append(stats.Errors, RunError{Email: rec.Email, Reason: err.Error()})
		s.log.Errorf("Send to %s failed: %v", rec.Email, err)
		if uerr := s.repo.UpdateStatus(ctx, rec.ID, rec.Language, application.StatusFailed); uerr != nil {
			s.log.Errorf("Mark %s failed errored: %v", rec.ID, uerr)
		}
		s.appendActivity(ctx, rec, application.ActionEmailFailed, application.ResultFailed, err.Error())
		return
	}

	if err := s.repo.UpdateSent(ctx, rec.ID, rec.Language, body, cvName); err != nil {
		stats.Failed++
		stats.Errors = append(stats.Errors, RunError{Email: rec.Email, Reason: fmt.Sprintf("record sent state: %v", err)})
		s.log.Errorf("Record sent state for %s failed: %v", rec.ID, err)
		return
	}

	stats.Sent++
	s.log.WithFields(logrus.Fields{
		"id":      rec.ID,
		"email":   rec.Email,
		"company": rec.Company,
	}).Info("Application sent")
	s.appendActivity(ctx, rec, application.ActionEmailSent, application.ResultSuccess, subject)

	if bounce := s.mailer.CheckBounces(ctx, result.MessageID); bounce != nil {
		s.log.Warnf("Bounce detected for %s: %s", rec.Email, bounce.Reason)
		if uerr := s.repo.UpdateStatus(ctx, rec.ID, rec.Language, application.StatusBounced); uerr != nil {
			s.log.Errorf("Mark %s bounced failed: %v", rec.ID, uerr)
		}
		s.appendActivity(ctx, rec, application.ActionBounceDetected, application.ResultBounced, bounce.Reason)
	}
}

// AddDraft creates a Draft record without sending anything.
func (s *SendService) AddDraft(ctx context.Context, input ApplicationInput) (*application.Record, error) {
	input.Language = normalizeLanguage(input.Language)
	if !mail.ValidAddress(input.Email) {
		return nil, &mail.ValidationError{Reason: fmt.Sprintf("invalid email address %q", input.Email)}
	}

	rec := s.newRecord(&input, application.StatusDraft)
	if err := s.repo.Add(ctx, rec); err != nil {
		return nil, fmt.Errorf("create draft record: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"id":    rec.ID,
		"email": rec.Email,
	}).Info("Draft added")
	s.appendActivity(ctx, rec, application.ActionApplicationAdded, application.ResultSuccess, string(rec.Status))
	return rec, nil
}

func (s *SendService) newRecord(input *ApplicationInput, status application.Status) *application.Record {
	cv := input.CV
	if cv == "" {
		cv = defaultCV[input.Language]
	}
	return &application.Record{
		ID:         uuid.NewString(),
		Company:    input.Company,
		Email:      input.Email,
		Position:   input.Position,
		Status:     status,
		Phone:      input.Phone,
		Website:    input.Website,
		Attachment: cv,
		Notes:      input.Notes,
		Language:   input.Language,
	}
}

func (s *SendService) lookupTemplate(category string, input *ApplicationInput) (templates.Template, error) {
	name := input.Template
	if name == "" {
		name = "default"
	}
	tpl, err := s.templates.Get(category, input.Language, name)
	if err != nil {
		return templates.Template{}, fmt.Errorf("template %q (%s): %w", name, input.Language, err)
	}
	return tpl, nil
}

func (s *SendService) appendActivity(ctx context.Context, rec *application.Record, action, result, details string) {
	err := s.repo.AppendActivity(ctx, application.ActivityEntry{
		ApplicationID: rec.ID,
		Email:         rec.Email,
		Action:        action,
		Result:        result,
		Details:       details,
	})
	if err != nil {
		s.log.Errorf("Append activity for %s failed: %v", rec.ID, err)
	}
}

func normalizeLanguage(lang application.Language) application.Language {
	if strings.ToLower(string(lang)) == string(application.LanguageFR) {
		return application.LanguageFR
	}
	return application.LanguageEN
}
