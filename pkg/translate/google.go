package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	googleTranslateURL = "https://translate.googleapis.com/translate_a/single"
	providerGoogle     = "google"
)

// Google implements Translator against the free Google Translate endpoint.
// No credentials are required; it is the generic MT fallback.
type Google struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewGoogle creates the generic machine-translation provider. baseURL may
// be empty to use the public endpoint.
func NewGoogle(baseURL string, client *http.Client, logger *slog.Logger) *Google {
	if baseURL == "" {
		baseURL = googleTranslateURL
	}
	return &Google{
		baseURL: baseURL,
		client:  client,
		logger:  logger.With("component", "translate.google"),
	}
}

// Name identifies the provider.
func (g *Google) Name() string { return providerGoogle }

// Translate calls the gtx endpoint. The response is a nested array; the
// first element of each segment pair is the translated text.
func (g *Google) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", NormalizeLang(sourceLang))
	params.Set("tl", NormalizeLang(targetLang))
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", WrapError(providerGoogle, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", WrapError(providerGoogle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", WrapError(providerGoogle, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", WrapError(providerGoogle, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed) == 0 {
		return "", WrapError(providerGoogle, ErrEmptyTranslation)
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(parsed[0], &segments); err != nil {
		return "", WrapError(providerGoogle, fmt.Errorf("decode segments: %w", err))
	}

	var b strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(segment[0], &piece); err != nil {
			continue
		}
		b.WriteString(piece)
	}

	translated := strings.TrimSpace(b.String())
	if translated == "" {
		return "", WrapError(providerGoogle, ErrEmptyTranslation)
	}

	g.logger.Debug("translation complete", "chars", len(translated), "target", targetLang)
	return translated, nil
}

// Verify Google implements Translator at compile time.
var _ Translator = (*Google)(nil)
