package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const openAISpeechURL = "https://api.openai.com/v1/audio/speech"

// OpenAI implements Synthesizer via the speech endpoint. Voices are fixed
// presets, so the hint is passed through as the voice name when set.
type OpenAI struct {
	apiKey  string
	model   string
	voice   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAI creates the speech-endpoint provider. model defaults to tts-1
// and voice to alloy.
func NewOpenAI(apiKey, model, voice string, client *http.Client, logger *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, WrapError(ProviderOpenAI, ErrNoAPIKey)
	}
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		voice:   voice,
		baseURL: openAISpeechURL,
		client:  client,
		logger:  logger.With("component", "tts.openai"),
	}, nil
}

// Name identifies the provider.
func (o *OpenAI) Name() string { return ProviderOpenAI }

// Synthesize renders the text with the hinted or configured preset voice.
func (o *OpenAI) Synthesize(ctx context.Context, req Request) (*Result, error) {
	voice := o.voice
	if req.VoiceHint != "" {
		voice = req.VoiceHint
	}

	payload := map[string]string{
		"model": o.model,
		"voice": voice,
		"input": req.Text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(ProviderOpenAI, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(ProviderOpenAI, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, WrapError(ProviderOpenAI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, WrapError(ProviderOpenAI, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(ProviderOpenAI, err)
	}
	if len(audio) == 0 {
		return nil, WrapError(ProviderOpenAI, ErrNoAudio)
	}

	o.logger.Debug("synthesis complete", "bytes", len(audio), "voice", voice)

	return &Result{
		Audio:       audio,
		ContentType: ContentTypeMPEG,
		Provider:    ProviderOpenAI,
		VoiceUsed:   voice,
	}, nil
}

// Verify OpenAI implements Synthesizer at compile time.
var _ Synthesizer = (*OpenAI)(nil)
