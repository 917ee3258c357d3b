package tts

import "strings"

// fallbackVoiceID is Rachel, a public premade voice the multilingual model
// can drive in any supported language. Used when nothing better matches.
const fallbackVoiceID = "21m00Tcm4TlvDq8ikWAM"

// voicePreferences maps language code to per-gender preferred voice names,
// matched by substring against the provider's voice catalog.
var voicePreferences = map[string]map[string][]string{
	"en": {
		GenderFemale: {"Rachel", "Bella", "Elli"},
		GenderMale:   {"Antoni", "Josh", "Arnold", "Adam", "Sam"},
	},
	"es": {
		GenderFemale: {"Matilda", "Isabella", "Valentina"},
		GenderMale:   {"Diego"},
	},
	"fr": {
		GenderFemale: {"Charlotte", "Alice", "Camille"},
		GenderMale:   {"Antoine"},
	},
	"de": {
		GenderFemale: {"Giselle", "Ingrid"},
		GenderMale:   {"Hans", "Klaus"},
	},
	"it": {
		GenderFemale: {"Bianca", "Giulia"},
		GenderMale:   {"Giorgio", "Marco"},
	},
	"pt": {
		GenderFemale: {"Camila", "Fernanda"},
		GenderMale:   {"Ricardo"},
	},
	"ar": {
		GenderFemale: {"Amara"},
		GenderMale:   {"Khalil"},
	},
	"hi": {
		GenderFemale: {"Aditi"},
		GenderMale:   {"Ravi"},
	},
	"ja": {
		GenderFemale: {"Akiko"},
		GenderMale:   {"Takeshi"},
	},
	"ko": {
		GenderFemale: {"Soo-jin"},
		GenderMale:   {"Jin"},
	},
	"zh": {
		GenderFemale: {"Li"},
		GenderMale:   {"Wei"},
	},
}

// preferredVoiceNames returns the voice names to try for a language and
// gender. Unknown languages fall back to the English list; an unknown
// gender tries female names first, then male.
func preferredVoiceNames(lang, gender string) []string {
	code := baseLang(lang)
	byGender, ok := voicePreferences[code]
	if !ok {
		byGender = voicePreferences["en"]
	}
	if names, ok := byGender[gender]; ok {
		return names
	}
	return append(append([]string{}, byGender[GenderFemale]...), byGender[GenderMale]...)
}

// baseLang reduces a language tag to its base code ("es-MX" -> "es").
func baseLang(lang string) string {
	code, _, _ := strings.Cut(lang, "-")
	return strings.ToLower(code)
}

// SupportedLanguages lists the languages the voice preference table covers.
func SupportedLanguages() []string {
	return []string{"en", "es", "fr", "de", "it", "pt", "ar", "hi", "ja", "ko", "zh"}
}
