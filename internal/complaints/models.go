package complaints

import "time"

// Complaint is the triage record derived from one call's content.
//
// Invariants:
// - A complaint always references a call that exists at creation time.
// - A call gets at most one pipeline-generated complaint; the ingestion
//   orchestrator enforces this through its flow (manual creation in the
//   dashboard is not bound by it).
// - Transcription is present on every pipeline-generated complaint but the
//   row shape permits null for manually filed ones.
type Complaint struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	Transcription *string `json:"transcription" db:"transcription"`

	Status   Status   `json:"status" db:"status"`
	Category string   `json:"category" db:"category"`
	Priority Priority `json:"priority" db:"priority"`

	// Summary is the AI-generated one-liner shown in the complaint list.
	Summary *string `json:"summary" db:"summary"`

	AssignedTo *string    `json:"assigned_to" db:"assigned_to"`
	Resolution *string    `json:"resolution" db:"resolution"`
	ResolvedAt *time.Time `json:"resolved_at" db:"resolved_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved, StatusClosed:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// StatusChange is one append-only history entry; written on every staff
// status transition, never updated or deleted.
type StatusChange struct {
	ID          string `json:"id" db:"id"`
	ComplaintID string `json:"complaint_id" db:"complaint_id"`

	OldStatus Status `json:"old_status" db:"old_status"`
	NewStatus Status `json:"new_status" db:"new_status"`

	// ActorID is the staff user making the change; empty for system writes.
	ActorID string `json:"user_id,omitempty" db:"actor_id"`
	Notes   string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Comment is a staff remark attached to a complaint.
type Comment struct {
	ID          string    `json:"id" db:"id"`
	ComplaintID string    `json:"complaint_id" db:"complaint_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Body        string    `json:"comment" db:"body"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
