package stt

import (
	"context"
	"log/slog"
)

// ProviderMock names the deterministic placeholder transcriber.
const ProviderMock = "mock"

// mockTranscripts holds placeholder transcripts per language. The mock
// always returns non-empty text, which is what makes it a safe chain
// terminator.
var mockTranscripts = map[string][]string{
	"en": {
		"Hello, how are you today?",
		"I'm feeling much better now, thank you.",
		"Could you please help me with this?",
		"The weather is nice today.",
		"I need to see the doctor.",
	},
	"es": {
		"Hola, ¿cómo estás hoy?",
		"Me siento mucho mejor ahora, gracias.",
		"¿Podrías ayudarme con esto por favor?",
		"El clima está agradable hoy.",
		"Necesito ver al médico.",
	},
	"fr": {
		"Bonjour, comment allez-vous aujourd'hui?",
		"Je me sens beaucoup mieux maintenant, merci.",
		"Pourriez-vous m'aider avec ceci s'il vous plaît?",
		"Le temps est agréable aujourd'hui.",
		"J'ai besoin de voir le médecin.",
	},
}

// Mock implements Provider with canned transcripts. It is deterministic:
// the same audio payload always yields the same placeholder text.
type Mock struct {
	logger *slog.Logger
}

// NewMockTranscriber creates the deterministic placeholder transcriber.
func NewMockTranscriber(logger *slog.Logger) *Mock {
	return &Mock{logger: logger.With("component", "stt.mock")}
}

// Name identifies the provider.
func (m *Mock) Name() string { return ProviderMock }

// Transcribe returns a canned transcript for the hinted language,
// defaulting to English. It never fails and never returns empty text.
func (m *Mock) Transcribe(ctx context.Context, audio []byte, languageHint string) (*Result, error) {
	lang := normalizeLang(languageHint)
	transcripts, ok := mockTranscripts[lang]
	if !ok {
		lang = "en"
		transcripts = mockTranscripts[lang]
	}

	text := transcripts[len(audio)%len(transcripts)]
	m.logger.Info("mock transcription", "language", lang, "text", text)

	return &Result{
		Text:       text,
		Language:   lang,
		Confidence: 0.95,
		Provider:   ProviderMock,
	}, nil
}

// SupportedLanguages lists the languages the mock has transcripts for.
func (m *Mock) SupportedLanguages() []string {
	return SupportedLanguages()
}

// SupportedLanguages lists the languages guaranteed to transcribe even with
// every real provider down.
func SupportedLanguages() []string {
	return []string{"en", "es", "fr"}
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
