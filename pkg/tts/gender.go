package tts

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
)

// GenderStore persists a per-user TTS gender assignment.
type GenderStore interface {
	// GetOrAssignTTSGender returns the user's stored TTS gender,
	// assigning one at random on first call.
	GetOrAssignTTSGender(ctx context.Context, userID string) (string, error)
}

// GenderResolver decides the voice gender for a synthesis request.
// Precedence: an explicit gender on the request, then the persisted
// per-user assignment, then a per-call random pick.
type GenderResolver struct {
	store  GenderStore
	pick   func() string
	logger *slog.Logger
}

// NewGenderResolver creates a resolver. store may be nil, in which case
// every unresolved request gets a per-call random gender.
func NewGenderResolver(store GenderStore, logger *slog.Logger) *GenderResolver {
	return &GenderResolver{
		store:  store,
		pick:   randomGender,
		logger: logger.With("component", "tts.gender"),
	}
}

// Resolve returns the gender to synthesize with.
func (r *GenderResolver) Resolve(ctx context.Context, explicit, senderID string) string {
	if explicit == GenderMale || explicit == GenderFemale {
		return explicit
	}
	if senderID != "" && r.store != nil {
		gender, err := r.store.GetOrAssignTTSGender(ctx, senderID)
		if err == nil && gender != "" {
			return gender
		}
		if err != nil {
			r.logger.Warn("gender lookup failed, picking per-call", "sender_id", senderID, "error", err)
		}
	}
	return r.pick()
}

func randomGender() string {
	if rand.Intn(2) == 0 {
		return GenderFemale
	}
	return GenderMale
}

var maleVoiceNames = []string{
	"clyde", "david", "james", "john", "michael",
	"robert", "william", "thomas", "charles", "daniel",
}

var femaleVoiceNames = []string{
	"rachel", "valentina", "sarah", "emma", "olivia",
	"ava", "isabella", "sophia", "charlotte", "mia",
}

// ResolveFromVoiceName guesses a gender from a preferred voice name. It is a
// best-effort hint over a fixed list of common voice names; the second
// return value reports whether the name matched at all.
func ResolveFromVoiceName(voiceName string) (string, bool) {
	name := strings.ToLower(voiceName)
	if name == "" {
		return "", false
	}
	for _, male := range maleVoiceNames {
		if strings.Contains(name, male) {
			return GenderMale, true
		}
	}
	for _, female := range femaleVoiceNames {
		if strings.Contains(name, female) {
			return GenderFemale, true
		}
	}
	return "", false
}
