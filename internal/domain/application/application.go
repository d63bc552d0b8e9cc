package application

// Language identifies which sheet partition a record belongs to.
// Each partition is processed independently.
type Language string

const (
	LanguageEN Language = "en"
	LanguageFR Language = "fr"
)

// Status represents the lifecycle state of an application.
// Values match the sheet cell contents exactly.
type Status string

const (
	StatusDraft              Status = "Draft"
	StatusPending            Status = "Pending"
	StatusSent               Status = "Sent"
	StatusFollowupSent       Status = "Follow-up Sent"
	StatusCallReceived       Status = "Call Received"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusInterviewComplete  Status = "Interview Complete"
	StatusOffer              Status = "Offer"
	StatusHired              Status = "Hired"
	StatusRejected           Status = "Rejected"
	StatusBounced            Status = "Bounced"
	StatusFailed             Status = "Failed"
	StatusFrozen             Status = "Frozen"
)

// terminalExcluded statuses are never picked up by the due-candidate query
// and therefore never auto-processed again.
var terminalExcluded = map[Status]bool{
	StatusBounced: true,
	StatusFailed:  true,
	StatusFrozen:  true,
}

// IsTerminalExcluded reports whether a status removes the record from
// automatic follow-up processing.
func IsTerminalExcluded(s Status) bool {
	return terminalExcluded[s]
}

// KnownStatuses lists every accepted status value, in lifecycle order.
var KnownStatuses = []Status{
	StatusDraft, StatusPending, StatusSent, StatusFollowupSent,
	StatusCallReceived, StatusInterviewScheduled, StatusInterviewComplete,
	StatusOffer, StatusHired, StatusRejected, StatusBounced, StatusFailed,
	StatusFrozen,
}

// ValidStatus reports whether s is one of the accepted status values.
func ValidStatus(s Status) bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PositiveStatuses are the responses counted as a success in analytics.
var PositiveStatuses = []Status{
	StatusCallReceived,
	StatusInterviewScheduled,
	StatusInterviewComplete,
	StatusOffer,
	StatusHired,
}

// Record is one outreach target, mirroring a row in the application sheet.
// Empty strings represent absent cells; the sheet does not distinguish the two.
type Record struct {
	ID               string
	Company          string
	Email            string
	Position         string
	Status           Status
	SentDate         string // timestamp string, set once on first successful send
	Followups        int
	NextFollowupDate string // timestamp string, empty when unscheduled
	Phone            string
	Website          string
	Body             string // last-sent email body, kept for audit/resend
	Attachment       string // CV filename, resolved against the language folder
	Notes            string
	Language         Language
}
