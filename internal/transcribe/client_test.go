package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	return Config{
		AccountSID: "AC-test",
		AuthToken:  "token-test",
		APIKey:     "sk-test",
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
	}
}

func TestDownloadAudio_SendsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		w.Write([]byte("RIFFaudio"))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	audio, err := c.DownloadAudio(context.Background(), srv.URL+"/recording.wav")
	if err != nil {
		t.Fatalf("DownloadAudio: %v", err)
	}
	if string(audio) != "RIFFaudio" {
		t.Fatalf("audio = %q", audio)
	}
	if gotUser != "AC-test" || gotPass != "token-test" {
		t.Fatalf("basic auth = %s:%s", gotUser, gotPass)
	}
}

func TestDownloadAudio_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	if _, err := c.DownloadAudio(context.Background(), srv.URL); err != nil {
		t.Fatalf("DownloadAudio: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDownloadAudio_NotFoundIsPermanent(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	_, err := c.DownloadAudio(context.Background(), srv.URL)
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("err = %v, want ErrDownload", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (404 must not be retried)", calls)
	}
}

func TestDownloadAudio_RetriesAreBounded(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	_, err := c.DownloadAudio(context.Background(), srv.URL)
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("err = %v, want ErrDownload", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestTranscribe_SendsModelAndLanguage(t *testing.T) {
	var gotModel, gotLanguage, gotAuth string
	var gotAudio []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		buf := make([]byte, 16)
		n, _ := f.Read(buf)
		gotAudio = buf[:n]

		json.NewEncoder(w).Encode(map[string]string{"text": "me robaron el celular"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	text, err := c.Transcribe(context.Background(), []byte("fake-audio"), "rec.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "me robaron el celular" {
		t.Fatalf("text = %q", text)
	}
	if gotModel != "whisper-1" || gotLanguage != "es" {
		t.Fatalf("model/language = %s/%s", gotModel, gotLanguage)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if string(gotAudio) != "fake-audio" {
		t.Fatalf("audio = %q", gotAudio)
	}
}

func TestTranscribe_BadRequestIsPermanent(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid file format"}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	_, err := c.Transcribe(context.Background(), []byte("not-audio"), "rec.wav")
	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("err = %v, want ErrTranscription", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (format errors must not be retried)", calls)
	}
}

func TestTranscribe_RetriesOnceOnServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "segundo intento"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	text, err := c.Transcribe(context.Background(), []byte("audio"), "rec.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "segundo intento" {
		t.Fatalf("text = %q", text)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestTranscribe_EmptyTranscriptIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": ""})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	text, err := c.Transcribe(context.Background(), []byte("silence"), "rec.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
}
