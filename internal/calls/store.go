package calls

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
)

// Store is the persistence contract for calls.
//
// GetByCallSid is an indexed lookup-by-provider-id primitive: the ledger's
// idempotent upsert depends on it resolving redelivered webhooks to the
// existing row without scanning the whole table.
type Store interface {
	GetByID(ctx context.Context, id string) (Call, error)
	GetByCallSid(ctx context.Context, callSid string) (Call, bool, error)
	List(ctx context.Context) ([]Call, error)
	Create(ctx context.Context, c Call) error
	Update(ctx context.Context, c Call) error

	// SetHasComplaint flips the denormalized listing flag.
	SetHasComplaint(ctx context.Context, id string, has bool) error
}
