// Package transcribe fetches call recordings from the telephony provider
// and turns them into text through an OpenAI-compatible speech-to-text API.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"complaint-hotline/internal/retry"
)

var (
	// ErrDownload marks failures while fetching the recording audio.
	ErrDownload = errors.New("transcribe: recording download failed")
	// ErrTranscription marks failures of the speech-to-text call itself.
	ErrTranscription = errors.New("transcribe: transcription failed")
)

// Config carries the provider credentials and model settings.
type Config struct {
	// AccountSID and AuthToken authenticate recording downloads against
	// the telephony provider (HTTP basic auth).
	AccountSID string
	AuthToken  string

	APIKey   string
	BaseURL  string // https://api.openai.com or a compatible gateway
	Model    string // whisper-1
	Language string // fixed source-language hint, e.g. "es"

	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.BaseURL == "" {
		out.BaseURL = "https://api.openai.com"
	}
	if out.Model == "" {
		out.Model = "whisper-1"
	}
	if out.Language == "" {
		out.Language = "es"
	}
	if out.Timeout <= 0 {
		out.Timeout = 60 * time.Second
	}
	return out
}

// Client downloads recordings and transcribes them. Safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// DownloadAudio fetches the recording bytes from the provider URL.
// Transient failures are retried; auth and not-found responses are not.
func (c *Client) DownloadAudio(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty recording url", ErrDownload)
	}

	policy := retry.NetworkIO()
	policy.Retryable = retryableHTTP

	var audio []byte
	err := retry.Do(ctx, c.log, "download_recording", policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retryError(err)
		}
		req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return newStatusError(resp)
		}
		audio, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrDownload)
	}
	return audio, nil
}

// Transcribe posts the audio to the speech-to-text endpoint and returns the
// recognized text. An empty transcript is a valid result (silent recording).
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: no audio data", ErrTranscription)
	}
	if filename == "" {
		filename = "recording.wav"
	}

	policy := retry.Transcription()
	policy.Retryable = retryableHTTP

	var text string
	err := retry.Do(ctx, c.log, "transcribe_audio", policy, func() error {
		body, contentType, err := c.multipartBody(audio, filename)
		if err != nil {
			return retryError(err)
		}

		url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/audio/transcriptions"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
		if err != nil {
			return retryError(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return newStatusError(resp)
		}

		var out struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		text = out.Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	return text, nil
}

func (c *Client) multipartBody(audio []byte, filename string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model", c.cfg.Model); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("language", c.cfg.Language); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// statusError is a non-200 API response. 5xx, 408 and 429 are transient;
// anything else in the 4xx range means the request itself is bad and a
// retry would only repeat the failure.
type statusError struct {
	code int
	body string
}

func newStatusError(resp *http.Response) *statusError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(b))}
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status %d", e.code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (e *statusError) transient() bool {
	return e.code >= 500 || e.code == http.StatusRequestTimeout || e.code == http.StatusTooManyRequests
}

func retryableHTTP(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.transient()
	}
	var pe *permanentError
	return !errors.As(err, &pe)
}

// permanentError wraps local failures (request construction, body
// assembly) that no retry can fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func retryError(err error) error { return &permanentError{err: err} }
