// Package stt provides speech-to-text transcription over interchangeable
// providers. All providers implement the Provider interface; the Selector
// arranges them into a fallback chain so a caller always gets a transcript
// or a single well-defined error.
package stt

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for transcription requests.
var (
	// ErrEmptyAudio is returned for zero-length payloads, before any
	// provider is invoked.
	ErrEmptyAudio = errors.New("stt: empty audio payload")

	// ErrAudioTooLarge is returned when the payload exceeds the accepted
	// maximum, independent of any provider's own limit.
	ErrAudioTooLarge = errors.New("stt: audio payload too large")

	// ErrNoAPIKey is returned when a provider is constructed without
	// credentials.
	ErrNoAPIKey = errors.New("stt: API key required")

	// ErrNoSpeech is returned when a provider found no speech in the audio.
	ErrNoSpeech = errors.New("stt: no speech detected")
)

// Result is a completed transcription.
type Result struct {
	// Text is the transcript.
	Text string

	// Language is the detected (or hinted) language code, e.g. "en".
	Language string

	// Confidence is the provider's confidence in the transcript, 0..1,
	// when reported.
	Confidence float64

	// Provider identifies which engine produced the transcript.
	Provider string
}

// Provider transcribes audio to text.
type Provider interface {
	// Transcribe converts audio bytes to text. languageHint may be empty;
	// providers treat it as advisory.
	Transcribe(ctx context.Context, audio []byte, languageHint string) (*Result, error)

	// Name identifies the provider for logging and chain attribution.
	Name() string
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("stt [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// normalizeLang reduces a BCP-47 tag to its 2-letter base ("es-MX" -> "es").
func normalizeLang(lang string) string {
	if len(lang) > 2 {
		return lang[:2]
	}
	return lang
}
