package stt

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/voicecare/voicecare/pkg/provider"
)

// stubProvider is a scriptable Provider for selector tests.
type stubProvider struct {
	name  string
	calls int
	fn    func(audio []byte, hint string) (*Result, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Transcribe(ctx context.Context, audio []byte, hint string) (*Result, error) {
	s.calls++
	return s.fn(audio, hint)
}

func failing(name string) *stubProvider {
	return &stubProvider{name: name, fn: func([]byte, string) (*Result, error) {
		return nil, WrapError(name, errors.New("unavailable"))
	}}
}

func returning(name, text string) *stubProvider {
	return &stubProvider{name: name, fn: func(_ []byte, hint string) (*Result, error) {
		return &Result{Text: text, Language: "en"}, nil
	}}
}

func newTestSelector(providers []Provider, terminal Provider, opts ...SelectorOption) *Selector {
	return NewSelector(providers, terminal, slog.Default(), opts...)
}

func TestSelectorRejectsEmptyAudio(t *testing.T) {
	primary := returning("primary", "never")
	s := newTestSelector([]Provider{primary}, nil)

	_, err := s.Transcribe(context.Background(), nil, "en")
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
	if primary.calls != 0 {
		t.Error("provider invoked for empty payload")
	}
}

func TestSelectorRejectsOversizedAudio(t *testing.T) {
	primary := returning("primary", "never")
	s := newTestSelector([]Provider{primary}, nil, WithMaxAudioBytes(8))

	_, err := s.Transcribe(context.Background(), make([]byte, 9), "en")
	if !errors.Is(err, ErrAudioTooLarge) {
		t.Fatalf("expected ErrAudioTooLarge, got %v", err)
	}
	if primary.calls != 0 {
		t.Error("provider invoked for oversized payload")
	}
}

func TestSelectorFallsBackToMock(t *testing.T) {
	a := failing("elevenlabs")
	b := failing("openai")
	c := failing("whisper")
	mock := NewMockTranscriber(slog.Default())

	s := newTestSelector([]Provider{a, b, c}, mock)

	result, err := s.Transcribe(context.Background(), []byte("audio-bytes"), "es")
	if err != nil {
		t.Fatalf("mock terminator must guarantee a transcript, got %v", err)
	}
	if result.Text == "" {
		t.Error("expected non-empty placeholder text")
	}
	if result.Provider != ProviderMock {
		t.Errorf("expected provider mock, got %s", result.Provider)
	}
	if result.Language != "es" {
		t.Errorf("expected hinted language, got %s", result.Language)
	}
}

func TestSelectorFallbackDisabled(t *testing.T) {
	primary := &stubProvider{name: "elevenlabs", fn: func([]byte, string) (*Result, error) {
		return &Result{Text: "", Language: "en"}, nil
	}}
	secondary := returning("openai", "unreached")

	s := newTestSelector([]Provider{primary, secondary}, nil, WithFallback(false))

	_, err := s.Transcribe(context.Background(), []byte("audio"), "")
	if err == nil {
		t.Fatal("expected error with fallback disabled")
	}
	if !errors.Is(err, provider.ErrEmptyResult) {
		t.Errorf("expected empty-result error, got %v", err)
	}
	if secondary.calls != 0 {
		t.Error("secondary invoked despite fallback disabled")
	}
}

func TestSelectorRetriesWithoutHint(t *testing.T) {
	hinted := &stubProvider{name: "elevenlabs", fn: func(_ []byte, hint string) (*Result, error) {
		if hint != "" {
			return &Result{Text: "", Language: hint}, nil
		}
		return &Result{Text: "recovered without hint", Language: "fr"}, nil
	}}
	secondary := returning("openai", "unreached")

	s := newTestSelector([]Provider{hinted, secondary}, nil)

	result, err := s.Transcribe(context.Background(), []byte("audio"), "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "recovered without hint" {
		t.Errorf("expected hint-free retry to win, got %q", result.Text)
	}
	if hinted.calls != 2 {
		t.Errorf("expected 2 calls (hinted + retry), got %d", hinted.calls)
	}
	if secondary.calls != 0 {
		t.Error("fallback invoked even though the retry succeeded")
	}
}

func TestSelectorShortCircuits(t *testing.T) {
	first := returning("elevenlabs", "hola")
	second := returning("openai", "never")

	s := newTestSelector([]Provider{first, second}, nil)

	result, err := s.Transcribe(context.Background(), []byte("audio"), "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hola" || result.Provider != "elevenlabs" {
		t.Errorf("unexpected result %q from %s", result.Text, result.Provider)
	}
	if second.calls != 0 {
		t.Error("second provider invoked after usable result")
	}
}

func TestMockIsDeterministic(t *testing.T) {
	mock := NewMockTranscriber(slog.Default())
	audio := []byte("same payload")

	first, err := mock.Transcribe(context.Background(), audio, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := mock.Transcribe(context.Background(), audio, "en")
	if first.Text != second.Text {
		t.Errorf("mock not deterministic: %q vs %q", first.Text, second.Text)
	}

	t.Run("unknown language falls back to english", func(t *testing.T) {
		r, err := mock.Transcribe(context.Background(), audio, "xx")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Language != "en" {
			t.Errorf("expected en fallback, got %s", r.Language)
		}
	})
}

func TestOrderProviders(t *testing.T) {
	tests := []struct {
		primary string
		want    [3]string
	}{
		{"elevenlabs", [3]string{"elevenlabs", "openai", "whisper"}},
		{"openai", [3]string{"openai", "elevenlabs", "whisper"}},
		{"whisper", [3]string{"whisper", "elevenlabs", "openai"}},
	}
	for _, tt := range tests {
		t.Run(tt.primary, func(t *testing.T) {
			got := OrderProviders(tt.primary)
			if len(got) != 3 {
				t.Fatalf("expected 3 providers, got %d", len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("position %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}
