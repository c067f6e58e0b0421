package calls

import "time"

// Call represents one phone call received by the hotline number.
//
// Idempotency invariant: CallSid (the telephony provider's call identifier)
// is unique; at most one Call row exists per CallSid. The ledger enforces
// find-before-create semantics so webhook redelivery resolves to the same
// row, and the Postgres schema is expected to back it with a UNIQUE
// constraint on call_sid.
//
// Calls are never deleted. Duration/status/recording fields are mutated in
// place as more complete provider events arrive.
type Call struct {
	ID      string `json:"id" db:"id"`
	CallSid string `json:"call_sid" db:"call_sid"`

	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	StartedAt   time.Time `json:"timestamp" db:"started_at"`

	// DurationSeconds is nil until a recording-completed event reports it.
	DurationSeconds *int `json:"duration" db:"duration_seconds"`

	Status CallStatus `json:"status" db:"status"`

	// RecordingURL is the provider's audio storage reference.
	RecordingURL string `json:"audio_url,omitempty" db:"recording_url"`
	RecordingSid string `json:"recording_sid,omitempty" db:"recording_sid"`

	// HasComplaint is a denormalized convenience flag for listing; the
	// complaint row is the source of truth.
	HasComplaint bool `json:"has_complaint" db:"has_complaint"`

	// Notes carries operator-visible remarks, e.g. "call too short to process".
	Notes string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

// ShortCallNotes is the operator-facing remark written on calls filtered by
// the short-call rule.
const ShortCallNotes = "call too short to process"
