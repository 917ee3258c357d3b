// Package translate provides machine translation over interchangeable
// providers. The Selector degrades gracefully: a translation failure yields
// the original text, never an error, so message dispatch is never blocked.
package translate

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for translation providers.
var (
	// ErrNoAPIKey is returned when a provider is constructed without
	// credentials.
	ErrNoAPIKey = errors.New("translate: API key required")

	// ErrEmptyTranslation is returned when a provider produced no text.
	ErrEmptyTranslation = errors.New("translate: empty translation")
)

// Translator converts text between languages.
type Translator interface {
	// Translate renders text from sourceLang into targetLang.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

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
	return fmt.Sprintf("translate [%s]: %v", e.Provider, e.Err)
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

// langMap converts common BCP-47 tags to the 2-letter codes the providers
// expect.
var langMap = map[string]string{
	"en-US": "en", "en-GB": "en",
	"es-ES": "es", "es-MX": "es",
	"fr-FR": "fr", "de-DE": "de",
	"it-IT": "it",
	"pt-BR": "pt", "pt-PT": "pt",
	"ru-RU": "ru", "zh-CN": "zh",
	"ja-JP": "ja", "ko-KR": "ko",
	"ar-SA": "ar",
}

// NormalizeLang reduces a language tag to its 2-letter base code.
func NormalizeLang(lang string) string {
	if mapped, ok := langMap[lang]; ok {
		return mapped
	}
	if len(lang) > 2 {
		return lang[:2]
	}
	return lang
}
