package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDo_StopsAtMaxAttempts(t *testing.T) {
	attempts := 0
	p := Policy{MaxAttempts: 3, InitialDelay: 0, Multiplier: 2, Jitter: 0}

	err := Do(context.Background(), nil, "always-fails", p, func() error {
		attempts++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestDo_ReturnsNilOnEventualSuccess(t *testing.T) {
	attempts := 0
	p := Policy{MaxAttempts: 3, InitialDelay: 0}

	err := Do(context.Background(), nil, "flaky", p, func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	attempts := 0
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: 0,
		Retryable: func(err error) bool {
			return !strings.Contains(err.Error(), "invalid format")
		},
	}

	wantErr := errors.New("invalid format: not a wav file")
	err := Do(context.Background(), nil, "transcribe", p, func() error {
		attempts++
		return wantErr
	})
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for a permanent error, got %d", attempts)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the original error, got %v", err)
	}
}

func TestDo_SingleAttemptPolicy(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), nil, "once", Policy{MaxAttempts: 1}, func() error {
		attempts++
		return errors.New("nope")
	})
	if err == nil || attempts != 1 {
		t.Fatalf("expected 1 attempt and an error, got attempts=%d err=%v", attempts, err)
	}
}

func TestDo_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	p := Policy{MaxAttempts: 10, InitialDelay: 0}

	err := Do(ctx, nil, "canceled", p, func() error {
		attempts++
		cancel()
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error after cancellation")
	}
	if attempts >= 10 {
		t.Fatalf("expected cancellation to cut retries short, got %d attempts", attempts)
	}
}

func TestPresets_AttemptBudgets(t *testing.T) {
	if got := NetworkIO().MaxAttempts; got != 3 {
		t.Fatalf("network-io preset: expected 3 attempts, got %d", got)
	}
	if got := Transcription().MaxAttempts; got != 2 {
		t.Fatalf("transcription preset: expected 2 attempts, got %d", got)
	}
	if got := AIInference().MaxAttempts; got != 2 {
		t.Fatalf("ai-inference preset: expected 2 attempts, got %d", got)
	}
}
