// Package relay dispatches voice notes between paired users: persist,
// translate, build per-party views, and push over live connections.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voicecare/voicecare/internal/store"
	"github.com/voicecare/voicecare/internal/ws"
	"github.com/voicecare/voicecare/pkg/metrics"
	"github.com/voicecare/voicecare/pkg/translate"
	"github.com/voicecare/voicecare/pkg/tts"
)

// Sentinel errors for relay operations.
var (
	// ErrNotConversationMember is returned when the claimed sender is not
	// part of the conversation. Nothing is persisted in that case.
	ErrNotConversationMember = errors.New("relay: sender not part of conversation")
)

// VoiceNote is the client -> server voice-note event. The text is the
// client-side transcript of the recorded note.
type VoiceNote struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SourceLang     string    `json:"source_lang"`
	TargetLang     string    `json:"target_lang"`
	TextSource     string    `json:"text_source"`
	ClientSentAt   time.Time `json:"client_sent_at"`
}

// PlayNow tells the recipient client to synthesize and play immediately.
type PlayNow struct {
	Lang         string `json:"lang"`
	Text         string `json:"text"`
	SenderGender string `json:"sender_gender,omitempty"`
	SenderID     string `json:"sender_id"`
}

// MessageEvent is the server -> client message payload. The recipient's
// copy carries translated text and a PlayNow block; the sender's copy
// carries the original text and no PlayNow.
type MessageEvent struct {
	Type    string         `json:"type"`
	Message *store.Message `json:"message"`
	PlayNow *PlayNow       `json:"play_now"`
}

// ErrorEvent is the server -> client error payload.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Relay wires the durable store, the translation selector, the connection
// manager, and the latency recorder into the voice-note flow.
type Relay struct {
	store      *store.Store
	translator *translate.Selector
	conns      *ws.Manager
	metrics    *metrics.Recorder
	tasks      *TaskQueue
	logger     *slog.Logger
}

// New creates a relay.
func New(st *store.Store, translator *translate.Selector, conns *ws.Manager, rec *metrics.Recorder, tasks *TaskQueue, logger *slog.Logger) *Relay {
	return &Relay{
		store:      st,
		translator: translator,
		conns:      conns,
		metrics:    rec,
		tasks:      tasks,
		logger:     logger.With("component", "relay"),
	}
}

// HandleJoin validates the user and binds it to the connection, then
// announces the updated presence to everyone.
func (r *Relay) HandleJoin(ctx context.Context, userID, connID string) error {
	if _, err := r.store.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	if !r.conns.Register(userID, connID) {
		return fmt.Errorf("join: unknown connection %s", connID)
	}
	r.logger.Info("user joined", "user_id", userID, "conn_id", connID)
	r.conns.BroadcastPresence()
	return nil
}

// OnDisconnect drops the connection and rebroadcasts presence.
func (r *Relay) OnDisconnect(connID string) {
	r.conns.Disconnect(connID)
	r.conns.BroadcastPresence()
}

// HandleVoiceNote runs the full dispatch flow for one note. The returned
// message reflects the durable record at creation time (status sent);
// delivery status advances in the background.
func (r *Relay) HandleVoiceNote(ctx context.Context, note VoiceNote) (*store.Message, error) {
	conv, err := r.store.GetConversation(ctx, note.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("voice note: %w", err)
	}
	recipientID := conv.Other(note.SenderID)
	if recipientID == "" {
		return nil, ErrNotConversationMember
	}

	clientSentAt := note.ClientSentAt
	msg := &store.Message{
		ConversationID: note.ConversationID,
		SenderID:       note.SenderID,
		TextSource:     note.TextSource,
		SourceLang:     note.SourceLang,
		TargetLang:     note.TargetLang,
		ClientSentAt:   &clientSentAt,
	}
	if err := r.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("voice note: %w", err)
	}

	r.metrics.StartTTFA(msg.ID, note.SenderID, recipientID, note.SourceLang, note.TargetLang, note.ClientSentAt)

	// Translation runs inline; persistence of its result does not.
	translated := r.translator.Translate(ctx, note.TextSource, note.SourceLang, note.TargetLang)
	r.metrics.RecordTranslationCompleted(msg.ID)

	r.tasks.Submit("persist-translation", func(ctx context.Context) error {
		return r.store.UpdateTranslation(ctx, msg.ID, translated)
	})

	recipientView, senderView := r.buildViews(ctx, msg, translated)

	r.metrics.RecordWSSent(msg.ID)

	if r.conns.SendToUser(recipientID, recipientView) {
		r.tasks.Submit("status-delivered", func(ctx context.Context) error {
			return r.store.UpdateStatus(ctx, msg.ID, store.StatusDelivered, time.Now().UTC(), nil)
		})
		r.logger.Info("voice note delivered", "message_id", msg.ID, "recipient_id", recipientID)
	} else {
		// Recipient offline: the message stays sent for later delivery.
		r.tasks.Submit("status-queued", func(ctx context.Context) error {
			return r.store.UpdateStatus(ctx, msg.ID, store.StatusSent, time.Now().UTC(), nil)
		})
		r.logger.Warn("recipient offline, voice note queued", "message_id", msg.ID, "recipient_id", recipientID)
	}

	if r.conns.SendToUser(note.SenderID, senderView) {
		r.logger.Debug("voice note echoed to sender", "message_id", msg.ID)
	} else {
		r.logger.Warn("failed to echo voice note to sender", "message_id", msg.ID)
	}

	return msg, nil
}

// buildViews produces the asymmetric per-party payloads for one message.
func (r *Relay) buildViews(ctx context.Context, msg *store.Message, translated string) (recipient, sender *MessageEvent) {
	recipientCopy := *msg
	recipientCopy.TextTranslated = &translated

	senderCopy := *msg
	senderCopy.TextTranslated = nil

	recipient = &MessageEvent{
		Type:    "message",
		Message: &recipientCopy,
		PlayNow: &PlayNow{
			Lang:         msg.TargetLang,
			Text:         translated,
			SenderGender: r.senderGender(ctx, msg.SenderID),
			SenderID:     msg.SenderID,
		},
	}
	sender = &MessageEvent{
		Type:    "message",
		Message: &senderCopy,
		PlayNow: nil,
	}
	return recipient, sender
}

// senderGender resolves the gender hint for recipient-side playback: the
// sender's profile gender when set, otherwise a best-effort guess from the
// preferred voice name.
func (r *Relay) senderGender(ctx context.Context, senderID string) string {
	user, err := r.store.GetUser(ctx, senderID)
	if err != nil {
		r.logger.Warn("sender lookup failed", "sender_id", senderID, "error", err)
		return ""
	}
	if user.Gender != "" {
		return user.Gender
	}
	if gender, ok := tts.ResolveFromVoiceName(user.PreferredVoice); ok {
		return gender
	}
	return ""
}

// HandlePlayed records the playback milestone. TTFA is first-write-wins;
// the status update runs in the background.
func (r *Relay) HandlePlayed(messageID string, playedAt time.Time) {
	var ttfaPtr *int64
	if ttfa, ok := r.metrics.RecordClientPlayed(messageID, playedAt); ok {
		ttfaPtr = &ttfa
	}
	r.tasks.Submit("status-played", func(ctx context.Context) error {
		return r.store.UpdateStatus(ctx, messageID, store.StatusPlayed, playedAt, ttfaPtr)
	})
}
