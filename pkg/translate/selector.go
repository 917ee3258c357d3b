package translate

import (
	"context"
	"log/slog"
	"time"
)

// Selector routes translation to the effective provider and absorbs every
// provider failure by returning the original text. It is a binary choice,
// not a retrying chain: at most one provider is invoked per call.
type Selector struct {
	primary Translator
	timeout time.Duration
	logger  *slog.Logger
}

// NewSelector creates a translation selector around the effective provider
// (resolved from configuration by the caller).
func NewSelector(primary Translator, timeout time.Duration, logger *slog.Logger) *Selector {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Selector{
		primary: primary,
		timeout: timeout,
		logger:  logger.With("component", "translate.selector"),
	}
}

// Translate returns the translated text, or the input unchanged when
// source and target match or when the provider fails. It never returns an
// error; translation failure must not block message dispatch.
func (s *Selector) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	if NormalizeLang(sourceLang) == NormalizeLang(targetLang) {
		return text
	}
	if s.primary == nil {
		return text
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	translated, err := s.primary.Translate(callCtx, text, sourceLang, targetLang)
	if err != nil {
		s.logger.Warn("translation failed, delivering original text",
			"provider", s.primary.Name(),
			"source_lang", sourceLang,
			"target_lang", targetLang,
			"error", err,
		)
		return text
	}
	return translated
}

// Provider returns the name of the effective translator, or "none".
func (s *Selector) Provider() string {
	if s.primary == nil {
		return "none"
	}
	return s.primary.Name()
}
