package stt

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voicecare/voicecare/internal/httpc"
)

func TestElevenLabsTranscribe(t *testing.T) {
	t.Run("successful transcription", func(t *testing.T) {
		var gotLang string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("xi-api-key") != "test-key" {
				t.Errorf("missing api key header")
			}
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			gotLang = r.FormValue("language_code")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"text": "me duele la cabeza", "language_code": "es", "language_probability": 0.98}`))
		}))
		defer server.Close()

		p, err := NewElevenLabs("test-key", "scribe_v1", httpc.Client, slog.Default())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p.baseURL = server.URL

		audio := make([]byte, minElevenLabsBytes)
		result, err := p.Transcribe(context.Background(), audio, "es-MX")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Text != "me duele la cabeza" {
			t.Errorf("unexpected text: %q", result.Text)
		}
		if result.Language != "es" {
			t.Errorf("unexpected language: %s", result.Language)
		}
		if gotLang != "es" {
			t.Errorf("hint not normalized to 2-letter code: %q", gotLang)
		}
	})

	t.Run("rejects short audio locally", func(t *testing.T) {
		p, _ := NewElevenLabs("test-key", "", httpc.Client, slog.Default())
		_, err := p.Transcribe(context.Background(), make([]byte, 100), "en")
		if err == nil {
			t.Fatal("expected error for short audio")
		}
	})

	t.Run("empty transcript is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"text": "   "}`))
		}))
		defer server.Close()

		p, _ := NewElevenLabs("test-key", "", httpc.Client, slog.Default())
		p.baseURL = server.URL

		_, err := p.Transcribe(context.Background(), make([]byte, minElevenLabsBytes), "en")
		if !errors.Is(err, ErrNoSpeech) {
			t.Errorf("expected ErrNoSpeech, got %v", err)
		}
	})

	t.Run("HTTP error surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer server.Close()

		p, _ := NewElevenLabs("bad-key", "", httpc.Client, slog.Default())
		p.baseURL = server.URL

		_, err := p.Transcribe(context.Background(), make([]byte, minElevenLabsBytes), "en")
		if err == nil {
			t.Fatal("expected error for HTTP 401")
		}
		var pe *ProviderError
		if !errors.As(err, &pe) || pe.Provider != "elevenlabs" {
			t.Errorf("expected elevenlabs ProviderError, got %v", err)
		}
	})

	t.Run("requires api key", func(t *testing.T) {
		_, err := NewElevenLabs("", "", httpc.Client, slog.Default())
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})
}

func TestOpenAITranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("unexpected model: %s", r.FormValue("model"))
		}
		w.Write([]byte(`{"text": "hello there", "language": "en"}`))
	}))
	defer server.Close()

	p, err := NewOpenAI("test-key", "", httpc.Client, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.baseURL = server.URL

	result, err := p.Transcribe(context.Background(), []byte("audio"), "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello there" || result.Provider != "openai" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestWhisperTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("self-hosted whisper must not send credentials")
		}
		w.Write([]byte(`{"text": "bonjour", "language": "fr"}`))
	}))
	defer server.Close()

	p := NewWhisper(server.URL, "tiny", httpc.Client, slog.Default())

	result, err := p.Transcribe(context.Background(), []byte("audio"), "fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "bonjour" || result.Provider != "whisper" {
		t.Errorf("unexpected result: %+v", result)
	}
}
