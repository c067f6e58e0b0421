package calls

import (
	"context"
	"testing"
	"time"
)

func testService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	svc := NewService(store, 10)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	return svc, store
}

func TestUpsertFromRecording_CreatesOnce(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	req := UpsertRequest{
		CallSid:         "CA1",
		PhoneNumber:     "+15550000",
		DurationSeconds: 45,
		RecordingURL:    "https://x/rec.wav",
		RecordingSid:    "RE1",
	}

	first, err := svc.UpsertFromRecording(ctx, req)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("expected generated id")
	}
	if first.Status != CallStatusCompleted {
		t.Fatalf("expected completed, got %s", first.Status)
	}
	if first.DurationSeconds == nil || *first.DurationSeconds != 45 {
		t.Fatalf("expected duration 45, got %v", first.DurationSeconds)
	}

	second, err := svc.UpsertFromRecording(ctx, req)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same internal id, got %q then %q", first.ID, second.ID)
	}

	all, _ := svc.List(ctx)
	if len(all) != 1 {
		t.Fatalf("expected exactly one call row, got %d", len(all))
	}
}

func TestUpsertFromRecording_UpdatesPartialRow(t *testing.T) {
	svc, store := testService()
	ctx := context.Background()

	// An earlier in-progress event created the row without recording data.
	seed := Call{
		ID:          "seed-id",
		CallSid:     "CA2",
		PhoneNumber: "+15551111",
		StartedAt:   time.Unix(1699999000, 0).UTC(),
		Status:      CallStatusInProgress,
		CreatedAt:   time.Unix(1699999000, 0).UTC(),
		UpdatedAt:   time.Unix(1699999000, 0).UTC(),
	}
	if err := store.Create(ctx, seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	got, err := svc.UpsertFromRecording(ctx, UpsertRequest{
		CallSid:         "CA2",
		DurationSeconds: 30,
		RecordingURL:    "https://x/rec2.wav",
		RecordingSid:    "RE2",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if got.ID != "seed-id" {
		t.Fatalf("expected existing row to be updated, got new id %q", got.ID)
	}
	if got.Status != CallStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.RecordingSid != "RE2" || got.RecordingURL != "https://x/rec2.wav" {
		t.Fatalf("expected recording fields set, got %+v", got)
	}
	// Fields the event did not carry are kept.
	if got.PhoneNumber != "+15551111" {
		t.Fatalf("expected phone number preserved, got %q", got.PhoneNumber)
	}
}

func TestUpsertFromRecording_ShortCall(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	got, err := svc.UpsertFromRecording(ctx, UpsertRequest{
		CallSid:         "CA3",
		PhoneNumber:     "+15552222",
		DurationSeconds: 3,
		RecordingURL:    "https://x/rec3.wav",
		RecordingSid:    "RE3",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if got.Status != CallStatusFailed {
		t.Fatalf("expected failed status for short call, got %s", got.Status)
	}
	if got.Notes != ShortCallNotes {
		t.Fatalf("expected short-call notes, got %q", got.Notes)
	}
	if !svc.IsShort(3) || svc.IsShort(10) {
		t.Fatalf("short-call threshold misbehaves: IsShort(3)=%v IsShort(10)=%v", svc.IsShort(3), svc.IsShort(10))
	}
}

func TestUpsertFromRecording_RequiresCallSid(t *testing.T) {
	svc, _ := testService()
	if _, err := svc.UpsertFromRecording(context.Background(), UpsertRequest{}); err == nil {
		t.Fatalf("expected error for missing call_sid")
	}
}

// racingStore makes the first GetByCallSid miss, then inserts a competing
// row before Create runs, mimicking a concurrent webhook delivery winning
// the insert race.
type racingStore struct {
	*MemoryStore
	missedOnce bool
}

func (s *racingStore) GetByCallSid(ctx context.Context, callSid string) (Call, bool, error) {
	if !s.missedOnce {
		s.missedOnce = true
		winner := Call{ID: "winner", CallSid: callSid, Status: CallStatusCompleted,
			StartedAt: time.Now().UTC(), CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
		if err := s.MemoryStore.Create(ctx, winner); err != nil {
			return Call{}, false, err
		}
		return Call{}, false, nil
	}
	return s.MemoryStore.GetByCallSid(ctx, callSid)
}

func (s *racingStore) Create(ctx context.Context, c Call) error {
	// The winner's row already holds the call_sid; reject like a unique
	// constraint would.
	if _, ok, _ := s.MemoryStore.GetByCallSid(ctx, c.CallSid); ok {
		return ErrInvalidArgument
	}
	return s.MemoryStore.Create(ctx, c)
}

func TestUpsertFromRecording_RecoversFromInsertRace(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore()}
	svc := NewService(store, 10)
	ctx := context.Background()

	got, err := svc.UpsertFromRecording(ctx, UpsertRequest{CallSid: "CA4", DurationSeconds: 20})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if got.ID != "winner" {
		t.Fatalf("expected winner row to be reused, got %q", got.ID)
	}

	all, _ := store.List(ctx)
	if len(all) != 1 {
		t.Fatalf("expected exactly one call row after race, got %d", len(all))
	}
}
