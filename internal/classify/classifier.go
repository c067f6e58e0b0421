// Package classify turns a call transcript into a structured complaint
// analysis through a language-model chat endpoint.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"complaint-hotline/internal/retry"
)

// ErrClassify marks transport failures of the chat completion call. Parse
// failures never surface as errors; they produce the fallback analysis.
var ErrClassify = errors.New("classify: chat completion failed")

// Categories is the closed set pipeline-generated complaints are
// constrained to. Anything else the model emits is coerced to Other.
var Categories = []string{
	"Theft",
	"Domestic-Violence",
	"Vandalism",
	"Noise",
	"Drugs",
	"Fraud",
	"Corruption",
	"Harassment",
	"Threats",
	"Other",
}

const (
	CategoryOther   = "Other"
	PriorityLow     = "low"
	PriorityMedium  = "medium"
	PriorityHigh    = "high"
	maxSummaryRunes = 280

	fallbackSummary = "Automatic classification failed; manual review required."
)

// Analysis is the transient output of classification; it lives in memory
// between the model call and complaint creation.
type Analysis struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Summary  string `json:"summary"`

	// NeedsReview is true when the analysis is the deterministic fallback
	// rather than a model result, so staff can tell a genuinely
	// low-priority "Other" apart from a failed classification.
	NeedsReview bool `json:"needs_review"`
}

// Fallback is the deterministic analysis substituted when the model reply
// cannot be parsed. It must never change shape between calls.
func Fallback() Analysis {
	return Analysis{
		Category:    CategoryOther,
		Priority:    PriorityMedium,
		Summary:     fallbackSummary,
		NeedsReview: true,
	}
}

const systemInstruction = `Eres un asistente que clasifica denuncias telefonicas ciudadanas.
Analiza la transcripcion de la llamada y responde UNICAMENTE con un objeto JSON con esta forma exacta:
{"category": "...", "priority": "...", "summary": "..."}
- "category" debe ser una de: Theft, Domestic-Violence, Vandalism, Noise, Drugs, Fraud, Corruption, Harassment, Threats, Other.
- "priority" debe ser una de: low, medium, high.
- "summary" es un resumen de una linea de la denuncia, en el idioma de la llamada.`

// Config carries the chat endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string // https://api.openai.com or a compatible gateway
	Model   string // gpt-4o

	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.BaseURL == "" {
		out.BaseURL = "https://api.openai.com"
	}
	if out.Model == "" {
		out.Model = "gpt-4o"
	}
	if out.Timeout <= 0 {
		out.Timeout = 60 * time.Second
	}
	return out
}

// Classifier calls the chat endpoint. Safe for concurrent use.
type Classifier struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClassifier(cfg Config, log *slog.Logger) *Classifier {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify submits the transcript and returns the parsed analysis.
//
// A reply that is not valid JSON of the expected shape yields Fallback()
// with a nil error: a malformed model response must not abort complaint
// creation. Only transport failures that survive all retries return an
// error.
func (c *Classifier) Classify(ctx context.Context, transcript string) (Analysis, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: transcript},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: encode request: %v", ErrClassify, err)
	}

	var content string
	err = retry.Do(ctx, c.log, "classify_transcript", retry.AIInference(), func() error {
		url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}

		var out chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if len(out.Choices) == 0 {
			return fmt.Errorf("response has no choices")
		}
		content = out.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrClassify, err)
	}

	return c.parse(content), nil
}

func (c *Classifier) parse(content string) Analysis {
	var a Analysis
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		c.log.Warn("classification reply is not valid JSON, using fallback analysis",
			"error", err)
		return Fallback()
	}
	if a.Category == "" && a.Priority == "" && a.Summary == "" {
		c.log.Warn("classification reply missing expected fields, using fallback analysis")
		return Fallback()
	}
	return normalize(a)
}

// normalize coerces out-of-set values instead of erroring: the complaint
// must be created even if the model strays from the instruction.
func normalize(a Analysis) Analysis {
	if !validCategory(a.Category) {
		a.Category = CategoryOther
	}
	switch a.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		a.Priority = PriorityMedium
	}
	a.Summary = truncateRunes(strings.TrimSpace(a.Summary), maxSummaryRunes)
	return a
}

func validCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
