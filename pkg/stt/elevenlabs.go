package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	elevenLabsSTTURL   = "https://api.elevenlabs.io/v1/speech-to-text"
	providerElevenLabs = "elevenlabs"

	// minElevenLabsBytes is roughly half a second of WebM/Opus at 16kHz.
	// Shorter clips are rejected locally instead of burning an API call.
	minElevenLabsBytes = 6000
)

// ElevenLabs implements Provider using the ElevenLabs Scribe API.
type ElevenLabs struct {
	apiKey  string
	modelID string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewElevenLabs creates an ElevenLabs STT provider.
func NewElevenLabs(apiKey, modelID string, client *http.Client, logger *slog.Logger) (*ElevenLabs, error) {
	if apiKey == "" {
		return nil, WrapError(providerElevenLabs, ErrNoAPIKey)
	}
	if modelID == "" {
		modelID = "scribe_v1"
	}
	return &ElevenLabs{
		apiKey:  apiKey,
		modelID: modelID,
		baseURL: elevenLabsSTTURL,
		client:  client,
		logger:  logger.With("component", "stt.elevenlabs"),
	}, nil
}

// Name identifies the provider.
func (e *ElevenLabs) Name() string { return providerElevenLabs }

// Transcribe sends the audio to the Scribe endpoint as multipart form data.
func (e *ElevenLabs) Transcribe(ctx context.Context, audio []byte, languageHint string) (*Result, error) {
	if len(audio) < minElevenLabsBytes {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("audio too short (%d bytes)", len(audio)))
	}

	lang := normalizeLang(languageHint)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("model_id", e.modelID); err != nil {
		return nil, WrapError(providerElevenLabs, err)
	}
	if lang != "" {
		if err := form.WriteField("language_code", lang); err != nil {
			return nil, WrapError(providerElevenLabs, err)
		}
	}
	part, err := form.CreateFormFile("file", "audio.webm")
	if err != nil {
		return nil, WrapError(providerElevenLabs, err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, WrapError(providerElevenLabs, err)
	}
	if err := form.Close(); err != nil {
		return nil, WrapError(providerElevenLabs, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, &body)
	if err != nil {
		return nil, WrapError(providerElevenLabs, err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, WrapError(providerElevenLabs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, WrapError(providerElevenLabs, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(payload)))
	}

	var parsed struct {
		Text       string  `json:"text"`
		Language   string  `json:"language_code"`
		Confidence float64 `json:"language_probability"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("decode response: %w", err))
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return nil, WrapError(providerElevenLabs, ErrNoSpeech)
	}

	detected := parsed.Language
	if detected == "" {
		detected = lang
	}

	e.logger.Debug("transcription complete",
		"chars", len(text),
		"language", detected,
	)

	return &Result{
		Text:       text,
		Language:   detected,
		Confidence: parsed.Confidence,
		Provider:   providerElevenLabs,
	}, nil
}

// Verify ElevenLabs implements Provider at compile time.
var _ Provider = (*ElevenLabs)(nil)
