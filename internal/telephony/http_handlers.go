package telephony

import (
	"context"
	"net/http"
	"time"

	"complaint-hotline/internal/ingest"
	"complaint-hotline/pkg/logger"
	"complaint-hotline/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Ingestor starts one background ingestion; done is called when it ends.
type Ingestor interface {
	ProcessAsync(event ingest.RecordingEvent, done func())
}

// WebhookHandler serves the two provider-facing endpoints: the inbound
// voice answer and the recording-status callback.
//
// The provider retries any callback it considers failed, so the status
// handler acknowledges every well-formed delivery with 200 regardless of
// what happens downstream.
type WebhookHandler struct {
	Pipeline Ingestor

	// Redis backs the intake lease that absorbs duplicate deliveries of
	// the same recording while one ingestion is in flight. Optional; with
	// a nil client every delivery is ingested and the pipeline's own
	// idempotency carries the weight.
	Redis    *redis.Client
	LeaseTTL time.Duration

	// HostURL is the public base URL audio prompts are served from.
	HostURL string
	// RecordingCallbackPath is where the provider posts recording status.
	RecordingCallbackPath string
}

// HandleInboundVoice answers an incoming call with the intake document.
func (h WebhookHandler) HandleInboundVoice(c *gin.Context) {
	log := logger.FromGin(c)

	twiml, err := IntakeTwiML(h.HostURL, h.RecordingCallbackPath)
	if err != nil {
		log.Error("intake twiml render failed", "error", err)
		c.Header("Content-Type", "application/xml")
		c.String(http.StatusOK, ErrorTwiML(h.HostURL))
		return
	}

	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

// HandleRecordingStatus accepts recording-status callbacks and kicks off
// ingestion in the background. The response never waits for the pipeline.
func (h WebhookHandler) HandleRecordingStatus(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseRecordingStatus(c.Request)
	if err != nil {
		log.Warn("recording status parse failed", "error", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	if !form.Ingestable() {
		// Progress events and failed recordings are acknowledged without
		// ingesting; rejecting them would only trigger provider retries.
		log.Info("recording status accepted without ingestion",
			"call_sid", form.CallSid,
			"recording_status", form.RecordingStatus)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "status " + form.RecordingStatus})
		return
	}

	if h.Pipeline == nil {
		log.Error("ingestion pipeline not configured")
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	release := h.acquireLease(c, form.RecordingSid)
	if release == nil {
		log.Info("duplicate recording delivery absorbed",
			"call_sid", form.CallSid,
			"recording_sid", form.RecordingSid)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "already processing"})
		return
	}

	h.Pipeline.ProcessAsync(form.ToRecordingEvent(), release)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "recording accepted"})
}

// acquireLease takes the per-recording intake lease. It returns the release
// callback when the lease was taken, and nil when another delivery already
// holds it. Redis being down degrades to ingesting without a lease.
func (h WebhookHandler) acquireLease(c *gin.Context, recordingSid string) func() {
	if h.Redis == nil {
		return func() {}
	}
	log := logger.FromGin(c)

	key := "ingest:lease:" + recordingSid
	token := uuid.NewString()
	ok, err := utils.AcquireIngestLease(c.Request.Context(), h.Redis, key, token, h.LeaseTTL)
	if err != nil {
		log.Warn("intake lease unavailable, ingesting without it", "error", err)
		return func() {}
	}
	if !ok {
		return nil
	}
	rdb := h.Redis
	return func() {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		if err := utils.ReleaseIngestLease(ctx, rdb, key, token); err != nil {
			log.Warn("intake lease release failed", "key", key, "error", err)
		}
	}
}

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
