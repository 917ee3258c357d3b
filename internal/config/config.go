// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Provider names accepted by the STT/TTS/translation knobs.
const (
	ProviderElevenLabs = "elevenlabs"
	ProviderOpenAI     = "openai"
	ProviderWhisper    = "whisper"
	ProviderBrowser    = "browser"
	ProviderGoogle     = "google"
	ProviderAuto       = "auto"
)

// Config holds all runtime settings for the voicecare backend.
type Config struct {
	// Server
	Host string `env:"APP_HOST" envDefault:"127.0.0.1"`
	Port int    `env:"APP_PORT" envDefault:"8000"`

	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./voicecare.db"`

	// STT
	STTProvider        string        `env:"STT_PROVIDER" envDefault:"elevenlabs"`
	STTFallbackEnabled bool          `env:"STT_FALLBACK_ENABLED" envDefault:"true"`
	STTTimeout         time.Duration `env:"STT_TIMEOUT" envDefault:"8s"`
	MaxAudioBytes      int           `env:"MAX_AUDIO_BYTES" envDefault:"10485760"`
	WhisperURL         string        `env:"WHISPER_URL" envDefault:"http://127.0.0.1:9000"`
	WhisperModel       string        `env:"WHISPER_MODEL" envDefault:"tiny"`
	ElevenLabsSTTModel string        `env:"ELEVENLABS_STT_MODEL" envDefault:"scribe_v1"`
	OpenAISTTModel     string        `env:"OPENAI_STT_MODEL" envDefault:"whisper-1"`

	// TTS
	TTSProvider     string        `env:"TTS_PROVIDER" envDefault:"elevenlabs"`
	TTSTimeout      time.Duration `env:"TTS_TIMEOUT" envDefault:"8s"`
	OpenAITTSModel  string        `env:"OPENAI_TTS_MODEL" envDefault:"tts-1"`
	OpenAITTSVoice  string        `env:"OPENAI_TTS_VOICE" envDefault:"alloy"`

	// Translation. "auto" prefers OpenAI whenever the STT or TTS path
	// already uses it, otherwise the generic MT service.
	TranslationProvider  string `env:"TRANSLATION_PROVIDER" envDefault:"auto"`
	OpenAITranslateModel string `env:"OPENAI_TRANSLATE_MODEL" envDefault:"gpt-4o"`
	TranslateURL         string `env:"TRANSLATE_URL" envDefault:"https://translate.googleapis.com/translate_a/single"`

	// Credentials
	ElevenLabsAPIKey string `env:"ELEVENLABS_API_KEY"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.STTProvider = strings.ToLower(cfg.STTProvider)
	cfg.TTSProvider = strings.ToLower(cfg.TTSProvider)
	cfg.TranslationProvider = strings.ToLower(cfg.TranslationProvider)
	return cfg, nil
}

// EffectiveTranslationProvider resolves the configured translation provider.
// Explicit "openai" or "google" wins; "auto" (or anything else) prefers
// OpenAI if either the STT or TTS path is already using it.
func (c *Config) EffectiveTranslationProvider() string {
	switch c.TranslationProvider {
	case ProviderOpenAI, ProviderGoogle:
		return c.TranslationProvider
	}
	if c.STTProvider == ProviderOpenAI || c.TTSProvider == ProviderOpenAI {
		return ProviderOpenAI
	}
	return ProviderGoogle
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
