package calls

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service is the call ledger: the only writer of call rows during ingestion.
//
// UpsertFromRecording must stay idempotent: telephony providers deliver
// recording webhooks at-least-once, and an early call-progress event may
// arrive before the recording-completed event for the same call_sid.
type Service struct {
	store Store
	clock func() time.Time

	// minDurationSeconds is the short-call threshold; calls below it are
	// marked failed and skip transcription entirely.
	minDurationSeconds int
}

func NewService(store Store, minDurationSeconds int) *Service {
	if minDurationSeconds <= 0 {
		minDurationSeconds = 10
	}
	return &Service{store: store, clock: time.Now, minDurationSeconds: minDurationSeconds}
}

// UpsertRequest carries the fields a recording-completed event contributes
// to the call row.
type UpsertRequest struct {
	CallSid         string
	PhoneNumber     string
	DurationSeconds int
	RecordingURL    string
	RecordingSid    string
}

// IsShort reports whether the short-call rule filters this duration.
func (s *Service) IsShort(durationSeconds int) bool {
	return durationSeconds < s.minDurationSeconds
}

// UpsertFromRecording finds-or-creates the call row for req.CallSid.
//
// Found: duration/status/recording fields are updated in place and the same
// internal id is returned. Missing: a new row is inserted with a fresh id.
// If the insert loses a race against a concurrent delivery (unique call_sid
// violation), the row written by the winner is re-read and updated instead.
func (s *Service) UpsertFromRecording(ctx context.Context, req UpsertRequest) (Call, error) {
	if req.CallSid == "" {
		return Call{}, fmt.Errorf("%w: call_sid required", ErrInvalidArgument)
	}
	if s.store == nil {
		return Call{}, fmt.Errorf("calls: store not configured")
	}

	now := s.clock().UTC()
	status := CallStatusCompleted
	notes := ""
	if s.IsShort(req.DurationSeconds) {
		status = CallStatusFailed
		notes = ShortCallNotes
	}

	existing, found, err := s.store.GetByCallSid(ctx, req.CallSid)
	if err != nil {
		return Call{}, fmt.Errorf("calls: lookup by call_sid: %w", err)
	}
	if found {
		return s.applyRecording(ctx, existing, req, status, notes, now)
	}

	dur := req.DurationSeconds
	c := Call{
		ID:              uuid.NewString(),
		CallSid:         req.CallSid,
		PhoneNumber:     req.PhoneNumber,
		StartedAt:       now,
		DurationSeconds: &dur,
		Status:          status,
		RecordingURL:    req.RecordingURL,
		RecordingSid:    req.RecordingSid,
		HasComplaint:    false,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, c); err != nil {
		// Likely a concurrent delivery won the insert; fall back to the row
		// it wrote. Anything else still surfaces as a create failure.
		if winner, ok, lookupErr := s.store.GetByCallSid(ctx, req.CallSid); lookupErr == nil && ok {
			return s.applyRecording(ctx, winner, req, status, notes, now)
		}
		return Call{}, fmt.Errorf("calls: create: %w", err)
	}
	return c, nil
}

func (s *Service) applyRecording(ctx context.Context, c Call, req UpsertRequest, status CallStatus, notes string, now time.Time) (Call, error) {
	dur := req.DurationSeconds
	c.DurationSeconds = &dur
	c.Status = status
	if req.PhoneNumber != "" {
		c.PhoneNumber = req.PhoneNumber
	}
	if req.RecordingURL != "" {
		c.RecordingURL = req.RecordingURL
	}
	if req.RecordingSid != "" {
		c.RecordingSid = req.RecordingSid
	}
	if notes != "" {
		c.Notes = notes
	}
	c.UpdatedAt = now

	if err := s.store.Update(ctx, c); err != nil {
		return Call{}, fmt.Errorf("calls: update: %w", err)
	}
	return c, nil
}

// Get returns one call by internal id.
func (s *Service) Get(ctx context.Context, id string) (Call, error) {
	if id == "" {
		return Call{}, ErrInvalidArgument
	}
	return s.store.GetByID(ctx, id)
}

// List returns all calls, newest first for the dashboard.
func (s *Service) List(ctx context.Context) ([]Call, error) {
	return s.store.List(ctx)
}
