package translate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voicecare/voicecare/internal/httpc"
)

type stubTranslator struct {
	name  string
	calls int
	fn    func(text, src, dst string) (string, error)
}

func (s *stubTranslator) Name() string { return s.name }

func (s *stubTranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	s.calls++
	return s.fn(text, src, dst)
}

func TestSelectorSkipsSameLanguage(t *testing.T) {
	stub := &stubTranslator{name: "stub", fn: func(text, _, _ string) (string, error) {
		return "should not run", nil
	}}
	s := NewSelector(stub, time.Second, slog.Default())

	got := s.Translate(context.Background(), "unchanged", "en", "en")
	if got != "unchanged" {
		t.Errorf("expected input unchanged, got %q", got)
	}
	if stub.calls != 0 {
		t.Error("provider invoked for same-language request")
	}

	t.Run("regional variants of one language also skip", func(t *testing.T) {
		got := s.Translate(context.Background(), "hola", "es-MX", "es")
		if got != "hola" || stub.calls != 0 {
			t.Errorf("expected skip for es-MX -> es, got %q (%d calls)", got, stub.calls)
		}
	})
}

func TestSelectorDegradesToOriginal(t *testing.T) {
	stub := &stubTranslator{name: "stub", fn: func(string, string, string) (string, error) {
		return "", errors.New("provider down")
	}}
	s := NewSelector(stub, time.Second, slog.Default())

	got := s.Translate(context.Background(), "Me duele la cabeza", "es", "en")
	if got != "Me duele la cabeza" {
		t.Errorf("expected original text on failure, got %q", got)
	}
}

func TestSelectorTranslates(t *testing.T) {
	stub := &stubTranslator{name: "stub", fn: func(text, src, dst string) (string, error) {
		if text != "Me duele la cabeza" || src != "es" || dst != "en" {
			t.Errorf("unexpected args: %q %s->%s", text, src, dst)
		}
		return "My head hurts", nil
	}}
	s := NewSelector(stub, time.Second, slog.Default())

	got := s.Translate(context.Background(), "Me duele la cabeza", "es", "en")
	if got != "My head hurts" {
		t.Errorf("expected translation, got %q", got)
	}
}

func TestSelectorNilProvider(t *testing.T) {
	s := NewSelector(nil, time.Second, slog.Default())
	if got := s.Translate(context.Background(), "text", "es", "en"); got != "text" {
		t.Errorf("expected passthrough with no provider, got %q", got)
	}
	if s.Provider() != "none" {
		t.Errorf("expected provider none, got %s", s.Provider())
	}
}

func TestGoogleTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sl") != "es" || q.Get("tl") != "en" {
			t.Errorf("unexpected language pair: %s -> %s", q.Get("sl"), q.Get("tl"))
		}
		if q.Get("q") != "Me duele la cabeza" {
			t.Errorf("unexpected query text: %q", q.Get("q"))
		}
		w.Write([]byte(`[[["My head hurts","Me duele la cabeza",null,null,10]],null,"es"]`))
	}))
	defer server.Close()

	g := NewGoogle(server.URL, httpc.Client, slog.Default())

	got, err := g.Translate(context.Background(), "Me duele la cabeza", "es-MX", "en-US")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "My head hurts" {
		t.Errorf("unexpected translation: %q", got)
	}
}

func TestGoogleTranslateMultiSegment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["Hello. ","Hola. ",null,null,10],["How are you?","¿Cómo estás?",null,null,10]],null,"es"]`))
	}))
	defer server.Close()

	g := NewGoogle(server.URL, httpc.Client, slog.Default())

	got, err := g.Translate(context.Background(), "Hola. ¿Cómo estás?", "es", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello. How are you?" {
		t.Errorf("unexpected translation: %q", got)
	}
}

func TestOpenAITranslate(t *testing.T) {
	t.Run("successful translation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Error("missing bearer token")
			}
			w.Write([]byte(`{"choices": [{"message": {"content": "My head hurts"}}]}`))
		}))
		defer server.Close()

		o, err := NewOpenAI("test-key", "gpt-4o", httpc.Client, slog.Default())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		o.baseURL = server.URL

		got, err := o.Translate(context.Background(), "Me duele la cabeza", "es", "en")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "My head hurts" {
			t.Errorf("unexpected translation: %q", got)
		}
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		o, _ := NewOpenAI("test-key", "", httpc.Client, slog.Default())
		o.baseURL = server.URL

		_, err := o.Translate(context.Background(), "text", "es", "en")
		if !errors.Is(err, ErrEmptyTranslation) {
			t.Errorf("expected ErrEmptyTranslation, got %v", err)
		}
	})

	t.Run("requires api key", func(t *testing.T) {
		_, err := NewOpenAI("", "", httpc.Client, slog.Default())
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})
}

func TestNormalizeLang(t *testing.T) {
	tests := map[string]string{
		"en-US": "en",
		"es-MX": "es",
		"pt-BR": "pt",
		"fr":    "fr",
		"de-AT": "de",
	}
	for input, want := range tests {
		if got := NormalizeLang(input); got != want {
			t.Errorf("NormalizeLang(%q) = %q, want %q", input, got, want)
		}
	}
}
