package calls

import (
	"context"
	"sync"
)

// MemoryStore is a simple in-memory call store useful for tests and early
// development. It mirrors Postgres semantics, including the uniqueness of
// call_sid via GetByCallSid.
//
// NOTE: Not intended for production.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[string]Call // by internal id
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]Call{}}
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Call, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetByCallSid(ctx context.Context, callSid string) (Call, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if c := s.rows[id]; c.CallSid == callSid {
			return c, true, nil
		}
	}
	return Call{}, false, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Call, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, c Call) error {
	_ = ctx
	if c.ID == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[c.ID]; exists {
		return ErrInvalidArgument
	}
	s.rows[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, c Call) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[c.ID]; !ok {
		return ErrNotFound
	}
	s.rows[c.ID] = c
	return nil
}

func (s *MemoryStore) SetHasComplaint(ctx context.Context, id string, has bool) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	c.HasComplaint = has
	s.rows[id] = c
	return nil
}
