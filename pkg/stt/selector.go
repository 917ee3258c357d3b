package stt

import (
	"context"
	"log/slog"
	"time"

	"github.com/voicecare/voicecare/pkg/provider"
)

// DefaultMaxAudioBytes caps accepted payloads at 10 MiB, independent of any
// provider's own limit.
const DefaultMaxAudioBytes = 10 * 1024 * 1024

// Selector runs transcription through an ordered provider chain terminated
// by the deterministic mock, so callers always receive a transcript.
type Selector struct {
	providers       []Provider
	terminal        Provider
	fallbackEnabled bool
	maxAudioBytes   int
	timeout         time.Duration
	logger          *slog.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithFallback enables or disables advancing past a failed provider.
func WithFallback(enabled bool) SelectorOption {
	return func(s *Selector) { s.fallbackEnabled = enabled }
}

// WithMaxAudioBytes overrides the accepted payload cap.
func WithMaxAudioBytes(n int) SelectorOption {
	return func(s *Selector) { s.maxAudioBytes = n }
}

// WithTimeout bounds each individual provider call.
func WithTimeout(d time.Duration) SelectorOption {
	return func(s *Selector) { s.timeout = d }
}

// NewSelector creates a transcription selector. providers are tried in
// order; terminal is the deterministic last resort (typically the mock) and
// may be nil to disable the guarantee.
func NewSelector(providers []Provider, terminal Provider, logger *slog.Logger, opts ...SelectorOption) *Selector {
	s := &Selector{
		providers:       providers,
		terminal:        terminal,
		fallbackEnabled: true,
		maxAudioBytes:   DefaultMaxAudioBytes,
		timeout:         8 * time.Second,
		logger:          logger.With("component", "stt.selector"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcribe validates the payload, then executes the provider chain.
// Empty and oversized payloads fail fast with distinguished errors before
// any provider is invoked.
func (s *Selector) Transcribe(ctx context.Context, audio []byte, languageHint string) (*Result, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	if len(audio) > s.maxAudioBytes {
		return nil, ErrAudioTooLarge
	}

	chain := &provider.Chain[*Result]{
		Attempts:        s.attempts(audio, languageHint),
		FallbackEnabled: s.fallbackEnabled,
		Usable: func(r *Result) bool {
			return r != nil && provider.NonEmptyText(r.Text)
		},
		Timeout: s.timeout,
		Logger:  s.logger,
	}
	if s.terminal != nil {
		chain.Terminal = &provider.Attempt[*Result]{
			Name: s.terminal.Name(),
			Run: func(ctx context.Context) (*Result, error) {
				return s.terminal.Transcribe(ctx, audio, languageHint)
			},
		}
	}

	result, name, err := chain.Execute(ctx)
	if err != nil {
		return nil, err
	}
	result.Provider = name
	return result, nil
}

// attempts builds the chain attempt list. Each provider gets a
// retry-without-hint mode when a hint was supplied, recovering transcripts
// suppressed by a wrong language hint.
func (s *Selector) attempts(audio []byte, languageHint string) []provider.Attempt[*Result] {
	attempts := make([]provider.Attempt[*Result], 0, len(s.providers))
	for _, p := range s.providers {
		p := p
		attempt := provider.Attempt[*Result]{
			Name: p.Name(),
			Run: func(ctx context.Context) (*Result, error) {
				return p.Transcribe(ctx, audio, languageHint)
			},
		}
		if languageHint != "" {
			attempt.RunNoHint = func(ctx context.Context) (*Result, error) {
				return p.Transcribe(ctx, audio, "")
			}
		}
		attempts = append(attempts, attempt)
	}
	return attempts
}

// OrderProviders arranges the engine names so the configured primary heads
// the chain and the remaining engines follow in the fixed fallback order.
func OrderProviders(primary string) []string {
	fixed := []string{"elevenlabs", "openai", "whisper"}
	ordered := make([]string, 0, len(fixed))
	for _, name := range fixed {
		if name == primary {
			ordered = append([]string{name}, ordered...)
		} else {
			ordered = append(ordered, name)
		}
	}
	return ordered
}
