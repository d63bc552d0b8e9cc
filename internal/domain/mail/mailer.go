package mail

import (
	"context"
	"errors"
	netmail "net/mail"
	"strings"
)

// Message is a single outbound email. AttachmentPath is optional; when set
// it must point at an existing file at send time.
type Message struct {
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

// SendResult carries the provider-assigned identifier of a transmitted
// message, used later for the best-effort bounce inspection.
type SendResult struct {
	MessageID string
}

// BounceInfo describes a detected bounce. The detection is heuristic and
// non-authoritative.
type BounceInfo struct {
	Reason string
}

// Mailer defines an interface for transmitting emails through a webmail
// provider. This decouples the application services from the provider SDK.
type Mailer interface {
	// Send validates and transmits a message, retrying transient failures
	// with backoff. Validation failures are returned as *ValidationError
	// and are never retried.
	Send(ctx context.Context, msg Message) (*SendResult, error)

	// SendWithDelay is Send preceded by a rate-shaping pause (base delay
	// plus small jitter). The pause carries no ordering guarantee.
	SendWithDelay(ctx context.Context, msg Message) (*SendResult, error)

	// CheckBounces inspects a sent message for bounce indicators. It never
	// fails: any inspection problem is reported as "no bounce" (nil).
	CheckBounces(ctx context.Context, messageID string) *BounceInfo
}

// ValidationError marks a precondition failure (bad address, blank subject
// or body, missing attachment). It must not be retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidAddress reports whether s is a plausible bare email address. Display
// names and angle brackets are rejected: the store holds bare addresses only.
func ValidAddress(s string) bool {
	addr, err := netmail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at < 1 {
		return false
	}
	return strings.Contains(s[at+1:], ".")
}
