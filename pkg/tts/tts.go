// Package tts provides text-to-speech synthesis over interchangeable
// providers. Synthesis failure is a first-class outcome, not an error: when
// the provider is unreachable or returns no audio, the Selector reports
// NeedsFallback so the client can fall back to on-device speech synthesis.
package tts

import (
	"context"
	"errors"
	"fmt"
)

// Provider names.
const (
	ProviderElevenLabs = "elevenlabs"
	ProviderOpenAI     = "openai"
	ProviderBrowser    = "browser"
)

// Speaker genders used for voice selection.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// ContentTypeMPEG is the content type of provider-synthesized audio.
const ContentTypeMPEG = "audio/mpeg"

// Sentinel errors for synthesis providers.
var (
	// ErrNoAPIKey is returned when a provider is constructed without
	// credentials.
	ErrNoAPIKey = errors.New("tts: API key required")

	// ErrNoAudio is returned when a provider produced no audio bytes.
	ErrNoAudio = errors.New("tts: no audio produced")
)

// Request describes one synthesis call.
type Request struct {
	// Text is the text to speak.
	Text string

	// Lang is the language of the text (2-letter or BCP-47 tag).
	Lang string

	// VoiceHint optionally names a specific voice by id or name.
	VoiceHint string

	// SenderGender steers voice selection when no hint matches. The
	// Selector fills it in when empty.
	SenderGender string

	// SenderID identifies the speaking user for persisted gender
	// assignment. May be empty.
	SenderID string
}

// Result is the outcome of one synthesis call. NeedsFallback set with a nil
// error means the client should synthesize locally.
type Result struct {
	Audio         []byte
	ContentType   string
	Provider      string
	VoiceUsed     string
	NeedsFallback bool
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize renders the request text as audio.
	Synthesize(ctx context.Context, req Request) (*Result, error)

	// Name identifies the provider for logging.
	Name() string
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts [%s]: %v", e.Provider, e.Err)
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
