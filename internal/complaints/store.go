package complaints

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("complaints: not found")
	ErrInvalidArgument = errors.New("complaints: invalid argument")
)

// Store is the persistence contract for complaints, their status history
// and comments.
type Store interface {
	GetByID(ctx context.Context, id string) (Complaint, error)
	GetByCallID(ctx context.Context, callID string) (Complaint, bool, error)
	List(ctx context.Context) ([]Complaint, error)
	Create(ctx context.Context, c Complaint) error
	Update(ctx context.Context, c Complaint) error

	// TransitionStatus writes the updated complaint and its history entry as
	// one unit: both land or neither does.
	TransitionStatus(ctx context.Context, c Complaint, change StatusChange) error
	ListHistory(ctx context.Context, complaintID string) ([]StatusChange, error)

	AddComment(ctx context.Context, cm Comment) error
	ListComments(ctx context.Context, complaintID string) ([]Comment, error)
}
