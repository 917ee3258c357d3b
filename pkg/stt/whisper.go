package stt

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

const providerWhisper = "whisper"

// Whisper implements Provider against a self-hosted Whisper server exposing
// the OpenAI-compatible transcription endpoint. No API key is required.
type Whisper struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewWhisper creates a Whisper STT provider for the given server base URL.
func NewWhisper(baseURL, model string, client *http.Client, logger *slog.Logger) *Whisper {
	if model == "" {
		model = "tiny"
	}
	return &Whisper{
		baseURL: strings.TrimRight(baseURL, "/") + "/v1/audio/transcriptions",
		model:   model,
		client:  client,
		logger:  logger.With("component", "stt.whisper"),
	}
}

// Name identifies the provider.
func (w *Whisper) Name() string { return providerWhisper }

// Transcribe sends the audio to the local Whisper server.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, languageHint string) (*Result, error) {
	result, err := transcribeWhisperAPI(ctx, w.client, w.baseURL, "", w.model, audio, languageHint)
	if err != nil {
		return nil, WrapError(providerWhisper, err)
	}
	result.Provider = providerWhisper
	w.logger.Debug("transcription complete", "chars", len(result.Text), "language", result.Language)
	return result, nil
}

// Verify Whisper implements Provider at compile time.
var _ Provider = (*Whisper)(nil)
