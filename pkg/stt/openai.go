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
	openAITranscribeURL = "https://api.openai.com/v1/audio/transcriptions"
	providerOpenAI      = "openai"
)

// OpenAI implements Provider using the OpenAI audio transcription API.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAI creates an OpenAI STT provider.
func NewOpenAI(apiKey, model string, client *http.Client, logger *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, WrapError(providerOpenAI, ErrNoAPIKey)
	}
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAITranscribeURL,
		client:  client,
		logger:  logger.With("component", "stt.openai"),
	}, nil
}

// Name identifies the provider.
func (o *OpenAI) Name() string { return providerOpenAI }

// Transcribe sends the audio to the transcription endpoint.
func (o *OpenAI) Transcribe(ctx context.Context, audio []byte, languageHint string) (*Result, error) {
	result, err := transcribeWhisperAPI(ctx, o.client, o.baseURL, o.apiKey, o.model, audio, languageHint)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}
	result.Provider = providerOpenAI
	o.logger.Debug("transcription complete", "chars", len(result.Text), "language", result.Language)
	return result, nil
}

// transcribeWhisperAPI posts audio to an OpenAI-compatible transcription
// endpoint. Shared by the hosted OpenAI provider and the self-hosted
// Whisper provider, which speak the same wire format.
func transcribeWhisperAPI(ctx context.Context, client *http.Client, url, apiKey, model string, audio []byte, languageHint string) (*Result, error) {
	lang := normalizeLang(languageHint)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("model", model); err != nil {
		return nil, err
	}
	if lang != "" {
		if err := form.WriteField("language", lang); err != nil {
			return nil, err
		}
	}
	if err := form.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	part, err := form.CreateFormFile("file", "audio.webm")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(payload))
	}

	var parsed struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return nil, ErrNoSpeech
	}

	detected := parsed.Language
	if detected == "" {
		detected = lang
	}

	return &Result{Text: text, Language: detected}, nil
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
