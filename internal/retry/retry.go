// Package retry wraps every external call of the ingestion pipeline in a
// bounded exponential-backoff loop.
//
// Policies are named presets rather than literals at call sites, so retry
// semantics stay consistent and testable in isolation.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes one bounded-retry strategy.
//
// The delay before attempt n (n >= 2) is
// InitialDelay * Multiplier^(n-2), randomized by +/- Jitter fraction.
// An operation is never executed more than MaxAttempts times.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	Jitter       float64

	// Retryable decides whether an error is worth another attempt.
	// nil means every error is retryable.
	Retryable func(error) bool
}

func (p Policy) withDefaults() Policy {
	out := p
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 1
	}
	if out.Multiplier <= 0 {
		out.Multiplier = 2
	}
	if out.Jitter < 0 {
		out.Jitter = 0
	}
	return out
}

// NetworkIO is the preset for plain HTTP fetches (recording downloads).
func NetworkIO() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: 300 * time.Millisecond, Multiplier: 2, Jitter: 0.1}
}

// Transcription is the preset for speech-to-text calls. Callers attach a
// Retryable predicate so format/validation errors fail fast.
func Transcription() Policy {
	return Policy{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond, Multiplier: 2, Jitter: 0.1}
}

// AIInference is the preset for language-model calls.
func AIInference() Policy {
	return Policy{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond, Multiplier: 2, Jitter: 0.1}
}

// Do executes op under the policy. Each invocation is independent; no state
// is shared across calls. Retries and the final failure are logged with the
// operation name so failed pipeline steps can be replayed manually.
func Do(ctx context.Context, log *slog.Logger, name string, p Policy, op func() error) error {
	p = p.withDefaults()
	if log == nil {
		log = slog.Default()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialDelay
	bo.Multiplier = p.Multiplier
	bo.RandomizationFactor = p.Jitter
	// Attempt count is the only bound; delays must not cut retries short.
	bo.MaxElapsedTime = 0
	bo.Reset()

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			log.Warn("permanent error, not retrying",
				"op", name, "attempt", attempt, "err", err)
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		log.Info("retrying operation",
			"op", name,
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"next_delay_ms", next.Milliseconds(),
			"err", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1)), ctx)
	err := backoff.RetryNotify(wrapped, b, notify)
	if err != nil {
		log.Error("operation failed after retries",
			"op", name, "attempts", attempt, "err", err)
	}
	return err
}
