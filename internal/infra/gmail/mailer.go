// Package gmail implements the outbound mail port on top of the Gmail API.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/gmail/v1"

	domainmail "jobflow/internal/domain/mail"
)

// Mailer sends messages through the Gmail API for a single authenticated
// account. Transient send failures are retried with exponential backoff;
// validation failures are surfaced immediately and never retried.
type Mailer struct {
	svc         *gmail.Service
	fromAddress string
	displayName string
	delay       time.Duration
	maxRetries  int
	log         *logrus.Logger
}

func NewMailer(svc *gmail.Service, fromAddress, displayName string, delaySeconds, maxRetries int, log *logrus.Logger) *Mailer {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Mailer{
		svc:         svc,
		fromAddress: fromAddress,
		displayName: displayName,
		delay:       time.Duration(delaySeconds) * time.Second,
		maxRetries:  maxRetries,
		log:         log,
	}
}

// Send validates the message, builds the MIME payload and transmits it.
func (m *Mailer) Send(ctx context.Context, msg domainmail.Message) (*domainmail.SendResult, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	raw, err := m.buildMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("build message for %s: %w", msg.To, err)
	}

	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		sent, err := m.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
		if err == nil {
			m.log.WithFields(logrus.Fields{
				"to":         msg.To,
				"message_id": sent.Id,
			}).Info("Email sent")
			return &domainmail.SendResult{MessageID: sent.Id}, nil
		}

		lastErr = err
		m.log.WithFields(logrus.Fields{
			"to":      msg.To,
			"attempt": attempt,
		}).Warnf("Send failed: %v", err)

		if attempt == m.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("send to %s failed after %d attempts: %w", msg.To, m.maxRetries, lastErr)
}

// SendWithDelay pauses for the configured delay plus up to one second of
// jitter before sending. The pause keeps bulk sends under provider rate
// limits.
func (m *Mailer) SendWithDelay(ctx context.Context, msg domainmail.Message) (*domainmail.SendResult, error) {
	jitter := time.Duration(rand.Int63n(int64(time.Second)))
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.delay + jitter):
	}
	return m.Send(ctx, msg)
}

// Headers whose presence in a message strongly indicates a delivery failure
// report, and body keywords used as a weaker fallback signal.
var (
	bounceHeaders = []string{
		"x-failed-recipients",
		"x-delivery-status",
		"delivery-status",
		"final-recipient",
		"diagnostic-code",
	}
	bounceKeywords = []string{
		"delivery failed",
		"undeliverable",
		"bounce",
		"failure notice",
		"delivery status notification",
	}
)

// CheckBounces inspects a sent message for bounce indicators. Detection is
// heuristic; any API or parse problem is treated as "no bounce".
func (m *Mailer) CheckBounces(ctx context.Context, messageID string) *domainmail.BounceInfo {
	if messageID == "" {
		return nil
	}
	msg, err := m.svc.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		m.log.Debugf("Bounce check for %s skipped: %v", messageID, err)
		return nil
	}
	if msg.Payload == nil {
		return nil
	}
	for _, h := range msg.Payload.Headers {
		name := strings.ToLower(h.Name)
		for _, indicator := range bounceHeaders {
			if name == indicator {
				return &domainmail.BounceInfo{
					Reason: fmt.Sprintf("%s: %s", h.Name, h.Value),
				}
			}
		}
	}
	snippet := strings.ToLower(msg.Snippet)
	for _, kw := range bounceKeywords {
		if strings.Contains(snippet, kw) {
			return &domainmail.BounceInfo{Reason: fmt.Sprintf("message snippet contains %q", kw)}
		}
	}
	return nil
}

// buildMessage renders the RFC 5322 payload and returns it in the URL-safe
// base64 form the Gmail API expects.
func (m *Mailer) buildMessage(msg domainmail.Message) (string, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: m.displayName, Address: m.fromAddress}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetAddressList("Reply-To", []*mail.Address{{Address: m.fromAddress}})
	h.SetSubject(msg.Subject)
	h.Set("X-Mailer", "jobflow")
	if err := h.GenerateMessageID(); err != nil {
		return "", fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return "", fmt.Errorf("create message writer: %w", err)
	}

	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return "", fmt.Errorf("create text part: %w", err)
	}
	if _, err := io.WriteString(tw, msg.Body); err != nil {
		return "", fmt.Errorf("write body: %w", err)
	}
	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("close text part: %w", err)
	}

	if msg.AttachmentPath != "" {
		if err := attach(mw, msg.AttachmentPath); err != nil {
			return "", err
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close message writer: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func attach(mw *mail.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open attachment %s: %w", path, err)
	}
	defer f.Close()

	filename := filepath.Base(path)
	ctype := mime.TypeByExtension(filepath.Ext(path))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	var ah mail.AttachmentHeader
	ah.SetFilename(filename)
	ah.SetContentType(ctype, nil)
	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("create attachment part: %w", err)
	}
	if _, err := io.Copy(aw, f); err != nil {
		return fmt.Errorf("write attachment %s: %w", filename, err)
	}
	if err := aw.Close(); err != nil {
		return fmt.Errorf("close attachment part: %w", err)
	}
	return nil
}

// validateMessage enforces send preconditions. Failures come back as
// *domainmail.ValidationError so callers can tell them from transport
// errors.
func validateMessage(msg domainmail.Message) error {
	if !domainmail.ValidAddress(msg.To) {
		return &domainmail.ValidationError{Reason: fmt.Sprintf("invalid recipient address %q", msg.To)}
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return &domainmail.ValidationError{Reason: "empty subject"}
	}
	if strings.TrimSpace(msg.Body) == "" {
		return &domainmail.ValidationError{Reason: "empty body"}
	}
	if msg.AttachmentPath != "" {
		if _, err := os.Stat(msg.AttachmentPath); err != nil {
			return &domainmail.ValidationError{Reason: fmt.Sprintf("attachment not readable: %s", msg.AttachmentPath)}
		}
	}
	return nil
}
