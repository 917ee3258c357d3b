package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/voicecare/voicecare/internal/relay"
)

// playedEvent is the client -> server playback acknowledgment.
type playedEvent struct {
	MessageID      string    `json:"message_id"`
	ClientPlayedAt time.Time `json:"client_played_at"`
}

// handleWS runs the read loop for one websocket connection. Every event is
// handled in isolation: a bad or failing event produces an error reply and
// the loop keeps serving.
func (s *Server) handleWS(c *websocket.Conn) {
	connID := s.conns.Connect(c)
	defer s.relay.OnDisconnect(connID)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		s.dispatchEvent(connID, data)
	}
}

func (s *Server) dispatchEvent(connID string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic handling ws event", "conn_id", connID, "panic", r)
			s.sendError(connID, "internal error", "internal")
		}
	}()

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.sendError(connID, "invalid JSON", "bad_json")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch envelope.Type {
	case "join":
		var join struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(data, &join); err != nil || join.UserID == "" {
			s.sendError(connID, "user_id required", "bad_join")
			return
		}
		if err := s.relay.HandleJoin(ctx, join.UserID, connID); err != nil {
			s.logger.Warn("join failed", "conn_id", connID, "error", err)
			s.sendError(connID, "join failed: unknown user", "unknown_user")
		}

	case "voice_note":
		var note relay.VoiceNote
		if err := json.Unmarshal(data, &note); err != nil {
			s.sendError(connID, "invalid voice_note", "bad_voice_note")
			return
		}
		if _, err := s.relay.HandleVoiceNote(ctx, note); err != nil {
			s.logger.Warn("voice note failed", "conn_id", connID, "error", err)
			s.sendError(connID, "voice note rejected", "voice_note_rejected")
		}

	case "played":
		var played playedEvent
		if err := json.Unmarshal(data, &played); err != nil || played.MessageID == "" {
			s.sendError(connID, "message_id required", "bad_played")
			return
		}
		if played.ClientPlayedAt.IsZero() {
			played.ClientPlayedAt = time.Now().UTC()
		}
		s.relay.HandlePlayed(played.MessageID, played.ClientPlayedAt)

	default:
		s.sendError(connID, "unknown message type: "+envelope.Type, "unknown_type")
	}
}

func (s *Server) sendError(connID, message, code string) {
	s.conns.SendToConn(connID, relay.ErrorEvent{
		Type:    "error",
		Message: message,
		Code:    code,
	})
}
