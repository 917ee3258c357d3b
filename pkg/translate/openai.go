package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	openAIChatURL  = "https://api.openai.com/v1/chat/completions"
	providerOpenAI = "openai"
)

// OpenAI implements Translator via chat completions. It is the
// higher-fidelity option and is preferred in "auto" mode whenever the STT
// or TTS path is already using OpenAI.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAI creates an LLM-backed translator.
func NewOpenAI(apiKey, model string, client *http.Client, logger *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, WrapError(providerOpenAI, ErrNoAPIKey)
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIChatURL,
		client:  client,
		logger:  logger.With("component", "translate.openai"),
	}, nil
}

// Name identifies the provider.
func (o *OpenAI) Name() string { return providerOpenAI }

// Translate asks the model for the translation and nothing else.
func (o *OpenAI) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": fmt.Sprintf("Translate into %s. Respond with translation only.", NormalizeLang(targetLang)),
			},
			{"role": "user", "content": text},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", WrapError(providerOpenAI, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", WrapError(providerOpenAI, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", WrapError(providerOpenAI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", WrapError(providerOpenAI, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", WrapError(providerOpenAI, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", WrapError(providerOpenAI, ErrEmptyTranslation)
	}

	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return "", WrapError(providerOpenAI, ErrEmptyTranslation)
	}

	o.logger.Debug("translation complete", "chars", len(translated), "target", targetLang)
	return translated, nil
}

// Verify OpenAI implements Translator at compile time.
var _ Translator = (*OpenAI)(nil)
