package tts

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTimeout bounds one synthesis call.
const DefaultTimeout = 30 * time.Second

// Selector wraps the configured provider and converts every failure into a
// browser-fallback result. Callers only see an error on programmer misuse;
// operational failures return NeedsFallback=true with a nil error.
type Selector struct {
	provider Synthesizer
	genders  *GenderResolver
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSelector creates a synthesis selector. provider may be nil ("browser"
// configuration), in which case every call reports NeedsFallback.
func NewSelector(provider Synthesizer, genders *GenderResolver, timeout time.Duration, logger *slog.Logger) *Selector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Selector{
		provider: provider,
		genders:  genders,
		timeout:  timeout,
		logger:   logger.With("component", "tts.selector"),
	}
}

// Synthesize resolves the speaker gender, invokes the provider, and maps
// any failure to a NeedsFallback result.
func (s *Selector) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if s.provider == nil {
		return &Result{
			ContentType:   "audio/wav",
			Provider:      ProviderBrowser,
			NeedsFallback: true,
		}, nil
	}

	if req.SenderGender == "" && s.genders != nil {
		req.SenderGender = s.genders.Resolve(ctx, "", req.SenderID)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.provider.Synthesize(callCtx, req)
	if err != nil {
		s.logger.Warn("synthesis failed, signaling browser fallback",
			"provider", s.provider.Name(),
			"lang", req.Lang,
			"error", err,
		)
		return &Result{
			ContentType:   ContentTypeMPEG,
			Provider:      s.provider.Name(),
			NeedsFallback: true,
		}, nil
	}
	if len(result.Audio) == 0 {
		result.NeedsFallback = true
	}
	return result, nil
}

// Provider returns the name of the configured provider, or "browser".
func (s *Selector) Provider() string {
	if s.provider == nil {
		return ProviderBrowser
	}
	return s.provider.Name()
}

// Voices returns the provider's voice catalog when it exposes one.
func (s *Selector) Voices(ctx context.Context) []Voice {
	if el, ok := s.provider.(*ElevenLabs); ok {
		return el.Voices(ctx)
	}
	return nil
}
