package complaints

import (
	"context"
	"sync"
)

// MemoryStore is a simple in-memory complaint store useful for tests and
// early development.
//
// NOTE: Not intended for production.
type MemoryStore struct {
	mu       sync.Mutex
	rows     map[string]Complaint
	order    []string
	history  map[string][]StatusChange
	comments map[string][]Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:     map[string]Complaint{},
		history:  map[string][]StatusChange{},
		comments: map[string][]Comment{},
	}
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Complaint, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return Complaint{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetByCallID(ctx context.Context, callID string) (Complaint, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if c := s.rows[id]; c.CallID == callID {
			return c, true, nil
		}
	}
	return Complaint{}, false, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Complaint, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Complaint, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, c Complaint) error {
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

func (s *MemoryStore) Update(ctx context.Context, c Complaint) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[c.ID]; !ok {
		return ErrNotFound
	}
	s.rows[c.ID] = c
	return nil
}

func (s *MemoryStore) TransitionStatus(ctx context.Context, c Complaint, change StatusChange) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[c.ID]; !ok {
		return ErrNotFound
	}
	s.rows[c.ID] = c
	s.history[c.ID] = append(s.history[c.ID], change)
	return nil
}

func (s *MemoryStore) ListHistory(ctx context.Context, complaintID string) ([]StatusChange, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StatusChange, len(s.history[complaintID]))
	copy(out, s.history[complaintID])
	return out, nil
}

func (s *MemoryStore) AddComment(ctx context.Context, cm Comment) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[cm.ComplaintID]; !ok {
		return ErrNotFound
	}
	s.comments[cm.ComplaintID] = append(s.comments[cm.ComplaintID], cm)
	return nil
}

func (s *MemoryStore) ListComments(ctx context.Context, complaintID string) ([]Comment, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Comment, len(s.comments[complaintID]))
	copy(out, s.comments[complaintID])
	return out, nil
}
