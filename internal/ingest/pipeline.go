// Package ingest sequences the call-to-complaint pipeline: record the call,
// filter short ones, download and transcribe the audio, classify the
// transcript and materialize the complaint.
//
// The call row written first is the anchor for everything after it. Any
// later step may fail without touching that row, so stuck calls remain
// queryable for manual follow-up.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"complaint-hotline/internal/calls"
	"complaint-hotline/internal/classify"
	"complaint-hotline/internal/complaints"
)

// RecordingEvent is the normalized recording-completed notification.
type RecordingEvent struct {
	CallSid         string
	RecordingSid    string
	RecordingURL    string
	From            string
	DurationSeconds int
}

// Outcome tells the caller how an ingestion ended.
type Outcome string

const (
	// OutcomeDone means the full pipeline ran and a complaint exists.
	OutcomeDone Outcome = "done"
	// OutcomeFiltered means the short-call rule stopped the pipeline
	// after the call row was written. Not an error.
	OutcomeFiltered Outcome = "filtered"
)

// Ledger records calls idempotently and applies the short-call rule.
type Ledger interface {
	UpsertFromRecording(ctx context.Context, req calls.UpsertRequest) (calls.Call, error)
	IsShort(durationSeconds int) bool
}

// Flagger marks a call as having produced a complaint.
type Flagger interface {
	SetHasComplaint(ctx context.Context, id string, has bool) error
}

// Transcriber fetches recording audio and turns it into text.
type Transcriber interface {
	DownloadAudio(ctx context.Context, url string) ([]byte, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Classifier produces a complaint analysis from a transcript.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (classify.Analysis, error)
}

// ComplaintCreator materializes the final complaint record.
type ComplaintCreator interface {
	Create(ctx context.Context, req complaints.CreateRequest) (complaints.Complaint, error)
}

// Pipeline wires the ingestion steps together. All dependencies are
// injected so each step can be doubled in tests.
type Pipeline struct {
	ledger      Ledger
	flagger     Flagger
	transcriber Transcriber
	classifier  Classifier
	complaints  ComplaintCreator
	log         *slog.Logger
}

func NewPipeline(ledger Ledger, flagger Flagger, transcriber Transcriber, classifier Classifier, creator ComplaintCreator, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		ledger:      ledger,
		flagger:     flagger,
		transcriber: transcriber,
		classifier:  classifier,
		complaints:  creator,
		log:         log,
	}
}

// ProcessRecording runs one ingestion end to end.
//
// The call upsert is the only step whose failure means nothing was
// recorded. After it succeeds, failures in download, transcription,
// classification or complaint creation propagate to the caller but leave
// the call row intact; the call simply never gets has_complaint set.
func (p *Pipeline) ProcessRecording(ctx context.Context, event RecordingEvent) (Outcome, error) {
	log := p.log.With(
		"call_sid", event.CallSid,
		"recording_sid", event.RecordingSid,
	)

	call, err := p.ledger.UpsertFromRecording(ctx, calls.UpsertRequest{
		CallSid:         event.CallSid,
		PhoneNumber:     event.From,
		DurationSeconds: event.DurationSeconds,
		RecordingURL:    event.RecordingURL,
		RecordingSid:    event.RecordingSid,
	})
	if err != nil {
		return "", fmt.Errorf("record call: %w", err)
	}
	log = log.With("call_id", call.ID)

	// At most one pipeline-generated complaint per call. A redelivered
	// webhook that slips past the intake lease stops here.
	if call.HasComplaint {
		log.Info("call already has a complaint, skipping")
		return OutcomeDone, nil
	}

	if p.ledger.IsShort(event.DurationSeconds) {
		log.Info("call below minimum duration, skipping transcription",
			"duration_seconds", event.DurationSeconds)
		return OutcomeFiltered, nil
	}

	audio, err := p.transcriber.DownloadAudio(ctx, event.RecordingURL)
	if err != nil {
		log.Error("pipeline step failed", "step", "download", "error", err)
		return "", fmt.Errorf("download recording: %w", err)
	}

	text, err := p.transcriber.Transcribe(ctx, audio, event.RecordingSid+".wav")
	if err != nil {
		log.Error("pipeline step failed", "step", "transcribe", "error", err)
		return "", fmt.Errorf("transcribe recording: %w", err)
	}

	analysis, err := p.classifier.Classify(ctx, text)
	if err != nil {
		log.Error("pipeline step failed", "step", "classify", "error", err)
		return "", fmt.Errorf("classify transcript: %w", err)
	}

	if err := p.materialize(ctx, log, call, text, analysis); err != nil {
		return "", err
	}

	log.Info("ingestion complete",
		"category", analysis.Category,
		"priority", analysis.Priority,
	)
	return OutcomeDone, nil
}

// materialize creates the complaint and then flags the call. The flag write
// is not rolled back on failure: a created complaint with an unflagged call
// is an inconsistency to log, not a reason to undo triage work.
func (p *Pipeline) materialize(ctx context.Context, log *slog.Logger, call calls.Call, transcript string, analysis classify.Analysis) error {
	var summary *string
	if analysis.Summary != "" {
		summary = &analysis.Summary
	}

	complaint, err := p.complaints.Create(ctx, complaints.CreateRequest{
		CallID:        call.ID,
		Transcription: &transcript,
		Category:      analysis.Category,
		Priority:      complaints.Priority(analysis.Priority),
		Summary:       summary,
	})
	if err != nil {
		log.Error("pipeline step failed", "step", "materialize", "error", err)
		return fmt.Errorf("create complaint: %w", err)
	}

	if err := p.flagger.SetHasComplaint(ctx, call.ID, true); err != nil {
		log.Error("complaint created but call flag update failed",
			"complaint_id", complaint.ID, "error", err)
	}
	if analysis.NeedsReview {
		log.Warn("complaint created from fallback analysis, needs manual review",
			"complaint_id", complaint.ID)
	}
	return nil
}

// ProcessAsync runs the pipeline in the background, detached from the
// webhook request context. All failures end as log entries; nothing
// propagates back to the HTTP response already sent to the provider.
func (p *Pipeline) ProcessAsync(event RecordingEvent, done func()) {
	go func() {
		if done != nil {
			defer done()
		}
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("ingestion panicked",
					"call_sid", event.CallSid,
					"recording_sid", event.RecordingSid,
					"panic", r)
			}
		}()

		if _, err := p.ProcessRecording(context.Background(), event); err != nil {
			p.log.Error("ingestion failed",
				"call_sid", event.CallSid,
				"recording_sid", event.RecordingSid,
				"error", err)
		}
	}()
}
