package application

import "context"

// FieldUpdate carries an optional-field patch for a record. Nil pointers
// leave the corresponding cell untouched.
type FieldUpdate struct {
	Company  *string
	Email    *string
	Position *string
	Phone    *string
	Website  *string
	Notes    *string
	Status   *Status
}

// Repository defines the operations for persisting and retrieving
// application records and their activity log. The backing store is an
// external tabular store with no locking primitive, so callers must not
// interleave mutations for the same record.
type Repository interface {
	// InitializeSheets ensures the header rows of all backing sheets exist.
	InitializeSheets(ctx context.Context) error

	// Add appends a new record. The caller fills ID and defaults.
	Add(ctx context.Context, rec *Record) error

	GetByID(ctx context.Context, id string, lang Language) (*Record, error)
	ListAll(ctx context.Context, lang Language) ([]*Record, error)

	// ListDueCandidates returns records eligible for follow-up processing:
	// status outside the terminal-excluded set and a non-empty
	// next-followup marker. Due filtering itself is the engine's job.
	ListDueCandidates(ctx context.Context, lang Language) ([]*Record, error)

	// UpdateSent records a successful initial send: status Sent, sent date
	// now, next follow-up derived from now, body and CV persisted.
	UpdateSent(ctx context.Context, id string, lang Language, body, cv string) error

	// UpdateFollowup records a successful follow-up send: the new count,
	// a next-followup date derived from the previous one (re-read fresh
	// from the store) and status "Follow-up Sent".
	UpdateFollowup(ctx context.Context, id string, lang Language, newCount int) error

	UpdateStatus(ctx context.Context, id string, lang Language, status Status) error
	UpdateFields(ctx context.Context, id string, lang Language, fields FieldUpdate) error

	AppendActivity(ctx context.Context, entry ActivityEntry) error
	ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error)
}
