package store

import "time"

// User roles.
const (
	RolePatient = "patient"
	RoleNurse   = "nurse"
	RoleAdmin   = "admin"
)

// Status is a message's delivery lifecycle state.
type Status string

// Message lifecycle states. Transitions only move forward along
// sent -> delivered -> played; failed is reachable from sent or delivered.
const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusPlayed    Status = "played"
	StatusFailed    Status = "failed"
)

// statusRank orders the forward lifecycle.
var statusRank = map[Status]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusPlayed:    2,
	StatusFailed:    3,
}

// transitionAllowed reports whether a message may move from one state to
// another. Forward moves along sent -> delivered -> played are allowed;
// failed is reachable only from sent or delivered and is terminal.
func transitionAllowed(from, to Status) bool {
	if from == StatusFailed {
		return false
	}
	if to == StatusFailed {
		return from == StatusSent || from == StatusDelivered
	}
	return statusRank[to] > statusRank[from]
}

// User is one registered participant.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	Gender         string    `json:"gender,omitempty"`
	TTSGender      string    `json:"tts_gender,omitempty"`
	PreferredLang  string    `json:"preferred_lang"`
	PreferredVoice string    `json:"preferred_voice,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation pairs exactly two users. The pair is stored in a canonical
// order so one pair maps to one conversation.
type Conversation struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"user_a_id"`
	UserBID   string    `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Other returns the conversation member that is not userID, or "" when
// userID is not a member.
func (c *Conversation) Other(userID string) string {
	switch userID {
	case c.UserAID:
		return c.UserBID
	case c.UserBID:
		return c.UserAID
	}
	return ""
}

// Message is one voice note's durable record.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	TextSource     string     `json:"text_source"`
	TextTranslated *string    `json:"text_translated"`
	SourceLang     string     `json:"source_lang"`
	TargetLang     string     `json:"target_lang"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ClientSentAt   *time.Time `json:"client_sent_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	PlayedAt       *time.Time `json:"played_at,omitempty"`
	TTFAMs         *int64     `json:"ttfa_ms,omitempty"`
}
