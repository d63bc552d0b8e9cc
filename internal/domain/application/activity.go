package application

// Activity actions recorded in the audit log.
const (
	ActionEmailSent        = "email_sent"
	ActionEmailFailed      = "email_failed"
	ActionFollowupSent     = "followup_sent"
	ActionFollowupSkipped  = "followup_skipped"
	ActionFollowupFailed   = "followup_failed"
	ActionBounceDetected   = "bounce_detected"
	ActionApplicationAdded = "application_added"
)

// Activity results.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultBounced = "bounced"
)

// ActivityEntry is one append-only audit trail row. Entries are never
// mutated or deleted once written.
type ActivityEntry struct {
	Timestamp     string // filled by the store when empty
	ApplicationID string
	Email         string
	Action        string
	Result        string
	Details       string
}
