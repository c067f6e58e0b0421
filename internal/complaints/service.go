package complaints

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service owns complaint lifecycle rules: creation, staff status
// transitions with history, assignment and comments.
type Service struct {
	store Store
	clock func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, clock: time.Now}
}

// CreateRequest carries the fields for a new complaint. Transcription and
// Summary may be nil for complaints filed manually from the dashboard.
type CreateRequest struct {
	CallID        string
	Transcription *string
	Category      string
	Priority      Priority
	Summary       *string
}

// Create inserts a complaint in status "new" with no assignee or resolution.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Complaint, error) {
	if req.CallID == "" {
		return Complaint{}, fmt.Errorf("%w: call_id required", ErrInvalidArgument)
	}
	if strings.TrimSpace(req.Category) == "" {
		return Complaint{}, fmt.Errorf("%w: category required", ErrInvalidArgument)
	}
	if !ValidPriority(req.Priority) {
		return Complaint{}, fmt.Errorf("%w: priority %q", ErrInvalidArgument, req.Priority)
	}

	now := s.clock().UTC()
	c := Complaint{
		ID:            uuid.NewString(),
		CallID:        req.CallID,
		Transcription: req.Transcription,
		Status:        StatusNew,
		Category:      req.Category,
		Priority:      req.Priority,
		Summary:       req.Summary,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return Complaint{}, fmt.Errorf("create complaint: %w", err)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (Complaint, error) {
	if id == "" {
		return Complaint{}, fmt.Errorf("%w: id required", ErrInvalidArgument)
	}
	return s.store.GetByID(ctx, id)
}

// GetByCall returns the complaint for a call, or ErrNotFound when the call
// produced none.
func (s *Service) GetByCall(ctx context.Context, callID string) (Complaint, error) {
	if callID == "" {
		return Complaint{}, fmt.Errorf("%w: call_id required", ErrInvalidArgument)
	}
	c, ok, err := s.store.GetByCallID(ctx, callID)
	if err != nil {
		return Complaint{}, err
	}
	if !ok {
		return Complaint{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]Complaint, error) {
	return s.store.List(ctx)
}

// UpdateStatusRequest is a staff-initiated status transition.
type UpdateStatusRequest struct {
	ComplaintID string
	NewStatus   Status
	ActorID     string
	Notes       string

	// Resolution is stored when the transition enters resolved or closed.
	Resolution string
}

// UpdateStatus moves a complaint to a new status and appends a history
// entry; both writes land together or not at all.
//
// ResolvedAt is stamped only on the transition into resolved and cleared
// again if the complaint is reopened.
func (s *Service) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (Complaint, error) {
	if req.ComplaintID == "" {
		return Complaint{}, fmt.Errorf("%w: complaint id required", ErrInvalidArgument)
	}
	if !ValidStatus(req.NewStatus) {
		return Complaint{}, fmt.Errorf("%w: status %q", ErrInvalidArgument, req.NewStatus)
	}

	c, err := s.store.GetByID(ctx, req.ComplaintID)
	if err != nil {
		return Complaint{}, err
	}

	old := c.Status
	now := s.clock().UTC()

	c.Status = req.NewStatus
	c.UpdatedAt = now
	switch {
	case req.NewStatus == StatusResolved && old != StatusResolved:
		t := now
		c.ResolvedAt = &t
	case req.NewStatus == StatusNew || req.NewStatus == StatusInProgress:
		c.ResolvedAt = nil
		c.Resolution = nil
	}
	if req.Resolution != "" {
		r := req.Resolution
		c.Resolution = &r
	}

	change := StatusChange{
		ID:          uuid.NewString(),
		ComplaintID: c.ID,
		OldStatus:   old,
		NewStatus:   req.NewStatus,
		ActorID:     req.ActorID,
		Notes:       req.Notes,
		CreatedAt:   now,
	}
	if err := s.store.TransitionStatus(ctx, c, change); err != nil {
		return Complaint{}, fmt.Errorf("transition complaint %s: %w", c.ID, err)
	}
	return c, nil
}

// Assign sets or clears the staff member responsible for a complaint.
// An empty userID unassigns.
func (s *Service) Assign(ctx context.Context, complaintID, userID string) (Complaint, error) {
	if complaintID == "" {
		return Complaint{}, fmt.Errorf("%w: complaint id required", ErrInvalidArgument)
	}
	c, err := s.store.GetByID(ctx, complaintID)
	if err != nil {
		return Complaint{}, err
	}

	if userID == "" {
		c.AssignedTo = nil
	} else {
		u := userID
		c.AssignedTo = &u
	}
	c.UpdatedAt = s.clock().UTC()

	if err := s.store.Update(ctx, c); err != nil {
		return Complaint{}, fmt.Errorf("assign complaint %s: %w", c.ID, err)
	}
	return c, nil
}

// AddComment attaches a staff remark to a complaint.
func (s *Service) AddComment(ctx context.Context, complaintID, userID, body string) (Comment, error) {
	if complaintID == "" {
		return Comment{}, fmt.Errorf("%w: complaint id required", ErrInvalidArgument)
	}
	if userID == "" {
		return Comment{}, fmt.Errorf("%w: user id required", ErrInvalidArgument)
	}
	if strings.TrimSpace(body) == "" {
		return Comment{}, fmt.Errorf("%w: comment body required", ErrInvalidArgument)
	}

	// Comments on unknown complaints are rejected up front so the store
	// never holds orphan rows.
	if _, err := s.store.GetByID(ctx, complaintID); err != nil {
		return Comment{}, err
	}

	cm := Comment{
		ID:          uuid.NewString(),
		ComplaintID: complaintID,
		UserID:      userID,
		Body:        body,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.store.AddComment(ctx, cm); err != nil {
		return Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return cm, nil
}

func (s *Service) ListComments(ctx context.Context, complaintID string) ([]Comment, error) {
	if complaintID == "" {
		return nil, fmt.Errorf("%w: complaint id required", ErrInvalidArgument)
	}
	return s.store.ListComments(ctx, complaintID)
}

func (s *Service) ListHistory(ctx context.Context, complaintID string) ([]StatusChange, error) {
	if complaintID == "" {
		return nil, fmt.Errorf("%w: complaint id required", ErrInvalidArgument)
	}
	return s.store.ListHistory(ctx, complaintID)
}
