// voicecare: real-time voice-note relay with server-side translation.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/voicecare/voicecare/internal/config"
	"github.com/voicecare/voicecare/internal/httpc"
	"github.com/voicecare/voicecare/internal/log"
	"github.com/voicecare/voicecare/internal/relay"
	"github.com/voicecare/voicecare/internal/server"
	"github.com/voicecare/voicecare/internal/store"
	"github.com/voicecare/voicecare/internal/ws"
	"github.com/voicecare/voicecare/pkg/metrics"
	"github.com/voicecare/voicecare/pkg/stt"
	"github.com/voicecare/voicecare/pkg/translate"
	"github.com/voicecare/voicecare/pkg/tts"
)

func main() {
	// .env is optional; the environment itself always wins
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	st, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	conns := ws.NewManager(logger)
	rec := metrics.NewRecorder(logger)
	tasks := relay.NewTaskQueue(4, 256, logger)
	defer tasks.Close()

	sttSel := buildSTT(cfg, logger)
	ttsSel := buildTTS(cfg, st, logger)
	translator := buildTranslator(cfg, logger)

	rel := relay.New(st, translator, conns, rec, tasks, logger)

	srv := server.New(server.Deps{
		Config:  cfg,
		Store:   st,
		Conns:   conns,
		Relay:   rel,
		STT:     sttSel,
		TTS:     ttsSel,
		Metrics: rec,
		Logger:  logger,
	})

	go func() {
		if err := srv.Listen(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// buildSTT assembles the transcription chain: the configured primary engine
// first, the remaining engines behind it, the deterministic mock last.
// Engines missing credentials are skipped with a warning.
func buildSTT(cfg *config.Config, logger *slog.Logger) *stt.Selector {
	var providers []stt.Provider
	for _, name := range stt.OrderProviders(cfg.STTProvider) {
		switch name {
		case config.ProviderElevenLabs:
			p, err := stt.NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.ElevenLabsSTTModel, httpc.Client, logger)
			if err != nil {
				logger.Warn("elevenlabs stt unavailable", "error", err)
				continue
			}
			providers = append(providers, p)
		case config.ProviderOpenAI:
			p, err := stt.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAISTTModel, httpc.Client, logger)
			if err != nil {
				logger.Warn("openai stt unavailable", "error", err)
				continue
			}
			providers = append(providers, p)
		case config.ProviderWhisper:
			providers = append(providers, stt.NewWhisper(cfg.WhisperURL, cfg.WhisperModel, httpc.Client, logger))
		}
	}

	return stt.NewSelector(providers, stt.NewMockTranscriber(logger), logger,
		stt.WithFallback(cfg.STTFallbackEnabled),
		stt.WithMaxAudioBytes(cfg.MaxAudioBytes),
		stt.WithTimeout(cfg.STTTimeout),
	)
}

// buildTTS picks the synthesis provider. "elevenlabs" without an API key
// falls back to openai; "browser" (or no usable provider) leaves synthesis
// to the client.
func buildTTS(cfg *config.Config, st *store.Store, logger *slog.Logger) *tts.Selector {
	genders := tts.NewGenderResolver(st, logger)

	var synth tts.Synthesizer
	switch cfg.TTSProvider {
	case config.ProviderBrowser:
		// client-side synthesis only
	case config.ProviderOpenAI:
		synth = mustTTSOpenAI(cfg, logger)
	default:
		if p, err := tts.NewElevenLabs(cfg.ElevenLabsAPIKey, httpc.Client, logger); err == nil {
			synth = p
		} else {
			logger.Warn("elevenlabs tts unavailable, trying openai", "error", err)
			synth = mustTTSOpenAI(cfg, logger)
		}
	}

	return tts.NewSelector(synth, genders, cfg.TTSTimeout, logger)
}

func mustTTSOpenAI(cfg *config.Config, logger *slog.Logger) tts.Synthesizer {
	p, err := tts.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAITTSModel, cfg.OpenAITTSVoice, httpc.Client, logger)
	if err != nil {
		logger.Warn("openai tts unavailable, falling back to browser synthesis", "error", err)
		return nil
	}
	return p
}

// buildTranslator resolves the effective translation provider.
func buildTranslator(cfg *config.Config, logger *slog.Logger) *translate.Selector {
	var translator translate.Translator
	switch cfg.EffectiveTranslationProvider() {
	case config.ProviderOpenAI:
		p, err := translate.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAITranslateModel, httpc.Client, logger)
		if err != nil {
			logger.Warn("openai translation unavailable, using generic MT", "error", err)
			translator = translate.NewGoogle(cfg.TranslateURL, httpc.Client, logger)
		} else {
			translator = p
		}
	default:
		translator = translate.NewGoogle(cfg.TranslateURL, httpc.Client, logger)
	}
	return translate.NewSelector(translator, 0, logger)
}
