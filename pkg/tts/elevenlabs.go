package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

	// elevenLabsModel is the multilingual model; it can speak every
	// supported language regardless of the voice's native accent.
	elevenLabsModel = "eleven_multilingual_v2"
)

// Voice is one entry from the provider's voice catalog.
type Voice struct {
	ID       string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// ElevenLabs implements Synthesizer against the ElevenLabs API. The voice
// catalog is fetched once and cached; catalog failures degrade to a
// hardcoded known-good voice rather than failing synthesis.
type ElevenLabs struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu     sync.Mutex
	voices []Voice
	loaded bool
}

// NewElevenLabs creates the premium synthesis provider.
func NewElevenLabs(apiKey string, client *http.Client, logger *slog.Logger) (*ElevenLabs, error) {
	if apiKey == "" {
		return nil, WrapError(ProviderElevenLabs, ErrNoAPIKey)
	}
	return &ElevenLabs{
		apiKey:  apiKey,
		baseURL: elevenLabsBaseURL,
		client:  client,
		logger:  logger.With("component", "tts.elevenlabs"),
	}, nil
}

// Name identifies the provider.
func (e *ElevenLabs) Name() string { return ProviderElevenLabs }

// Voices returns the cached voice catalog, fetching it on first use. A
// fetch failure yields an empty catalog, not an error.
func (e *ElevenLabs) Voices(ctx context.Context) []Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadVoicesLocked(ctx)
	return e.voices
}

func (e *ElevenLabs) loadVoicesLocked(ctx context.Context) {
	if e.loaded {
		return
	}
	e.loaded = true

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/voices", nil)
	if err != nil {
		return
	}
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("voice catalog fetch failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("voice catalog fetch rejected", "status", resp.StatusCode)
		return
	}

	var parsed struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		e.logger.Warn("voice catalog decode failed", "error", err)
		return
	}
	e.voices = parsed.Voices
	e.logger.Info("voice catalog loaded", "count", len(e.voices))
}

// Synthesize picks the best voice for the request and renders the text.
func (e *ElevenLabs) Synthesize(ctx context.Context, req Request) (*Result, error) {
	voice := e.findBestVoice(ctx, req.Lang, req.VoiceHint, req.SenderGender)

	payload := map[string]any{
		"text":     req.Text,
		"model_id": elevenLabsModel,
		"voice_settings": map[string]any{
			"stability":         0.5,
			"similarity_boost":  0.75,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(ProviderElevenLabs, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, voice), bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(ProviderElevenLabs, err)
	}
	httpReq.Header.Set("xi-api-key", e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, WrapError(ProviderElevenLabs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, WrapError(ProviderElevenLabs, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(ProviderElevenLabs, err)
	}
	if len(audio) == 0 {
		return nil, WrapError(ProviderElevenLabs, ErrNoAudio)
	}

	e.logger.Debug("synthesis complete", "bytes", len(audio), "voice", voice, "lang", req.Lang)

	return &Result{
		Audio:       audio,
		ContentType: ContentTypeMPEG,
		Provider:    ProviderElevenLabs,
		VoiceUsed:   voice,
	}, nil
}

// findBestVoice resolves a voice id. An explicit hint wins (exact id first,
// then name substring), then the language/gender preference table, then the
// first cached voice, then the hardcoded fallback.
func (e *ElevenLabs) findBestVoice(ctx context.Context, lang, hint, gender string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadVoicesLocked(ctx)

	if hint != "" {
		for _, v := range e.voices {
			if v.ID == hint {
				return v.ID
			}
		}
		lowered := strings.ToLower(hint)
		for _, v := range e.voices {
			if strings.Contains(strings.ToLower(v.Name), lowered) {
				return v.ID
			}
		}
	}

	for _, name := range preferredVoiceNames(lang, gender) {
		lowered := strings.ToLower(name)
		for _, v := range e.voices {
			if strings.Contains(strings.ToLower(v.Name), lowered) {
				return v.ID
			}
		}
	}

	if len(e.voices) > 0 {
		return e.voices[0].ID
	}
	return fallbackVoiceID
}

// Verify ElevenLabs implements Synthesizer at compile time.
var _ Synthesizer = (*ElevenLabs)(nil)
