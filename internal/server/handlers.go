package server

import (
	"encoding/base64"
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/voicecare/voicecare/internal/store"
	"github.com/voicecare/voicecare/pkg/stt"
	"github.com/voicecare/voicecare/pkg/tts"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ttfa_stats":        s.metrics.TTFAStats(),
		"translation_stats": s.metrics.TranslationStats(),
	})
}

func (s *Server) handleDebugConnections(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connections":  s.conns.Count(),
		"online_users": s.conns.OnlineUserIDs(),
	})
}

func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	header, err := c.FormFile("audio")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "audio file required")
	}
	file, err := header.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable audio file")
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable audio file")
	}

	result, err := s.stt.Transcribe(c.Context(), audio, c.FormValue("language"))
	switch {
	case errors.Is(err, stt.ErrEmptyAudio):
		return fiber.NewError(fiber.StatusBadRequest, "empty audio")
	case errors.Is(err, stt.ErrAudioTooLarge):
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "audio too large")
	case err != nil:
		s.logger.Error("transcription failed", "error", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "transcription failed")
	}

	return c.JSON(fiber.Map{
		"text":       result.Text,
		"language":   result.Language,
		"confidence": result.Confidence,
		"provider":   result.Provider,
	})
}

func (s *Server) handleSTTLanguages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"provider":  s.cfg.STTProvider,
		"languages": stt.SupportedLanguages(),
	})
}

type speakRequest struct {
	Text         string `json:"text"`
	Lang         string `json:"lang"`
	VoiceHint    string `json:"voice_hint"`
	SenderGender string `json:"sender_gender"`
	SenderID     string `json:"sender_id"`
}

func (s *Server) handleSpeak(c *fiber.Ctx) error {
	var req speakRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text required")
	}

	result, err := s.tts.Synthesize(c.Context(), tts.Request{
		Text:         req.Text,
		Lang:         req.Lang,
		VoiceHint:    req.VoiceHint,
		SenderGender: req.SenderGender,
		SenderID:     req.SenderID,
	})
	if err != nil {
		s.logger.Error("synthesis failed", "error", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "synthesis failed")
	}

	return c.JSON(fiber.Map{
		"audio_base64":           base64.StdEncoding.EncodeToString(result.Audio),
		"content_type":           result.ContentType,
		"provider":               result.Provider,
		"voice_used":             result.VoiceUsed,
		"needs_browser_fallback": result.NeedsFallback,
	})
}

func (s *Server) handleVoices(c *fiber.Ctx) error {
	voices := s.tts.Voices(c.Context())
	if voices == nil {
		voices = []tts.Voice{}
	}
	return c.JSON(fiber.Map{
		"provider": s.tts.Provider(),
		"voices":   voices,
	})
}

type createUserRequest struct {
	Name           string `json:"name"`
	Role           string `json:"role"`
	Gender         string `json:"gender"`
	PreferredLang  string `json:"preferred_lang"`
	PreferredVoice string `json:"preferred_voice"`
}

func (s *Server) handleCreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Role == "" || req.PreferredLang == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, role, and preferred_lang required")
	}

	user := &store.User{
		Name:           req.Name,
		Role:           req.Role,
		Gender:         req.Gender,
		PreferredLang:  req.PreferredLang,
		PreferredVoice: req.PreferredVoice,
	}
	if err := s.store.CreateUser(c.Context(), user); err != nil {
		s.logger.Error("create user failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "create user failed")
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.store.ListUsers(c.Context())
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "list users failed")
	}
	if users == nil {
		users = []*store.User{}
	}
	return c.JSON(fiber.Map{"users": users})
}

type createConversationRequest struct {
	UserAID string `json:"user_a_id"`
	UserBID string `json:"user_b_id"`
}

func (s *Server) handleCreateConversation(c *fiber.Ctx) error {
	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.UserAID == "" || req.UserBID == "" || req.UserAID == req.UserBID {
		return fiber.NewError(fiber.StatusBadRequest, "two distinct user ids required")
	}

	conv, err := s.store.CreateOrGetConversation(c.Context(), req.UserAID, req.UserBID)
	if err != nil {
		s.logger.Error("create conversation failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "create conversation failed")
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (s *Server) handleListMessages(c *fiber.Ctx) error {
	convID := c.Params("id")
	if _, err := s.store.GetConversation(c.Context(), convID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "conversation not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "lookup failed")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	before := c.Query("before")

	// fetch one extra row to detect a further page
	page, err := s.store.ListMessages(c.Context(), convID, limit+1, before)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown cursor")
		}
		s.logger.Error("list messages failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "list messages failed")
	}

	hasMore := len(page) > limit
	if hasMore {
		page = page[:limit]
	}
	nextCursor := ""
	if hasMore && len(page) > 0 {
		nextCursor = page[len(page)-1].ID
	}
	if page == nil {
		page = []*store.Message{}
	}

	return c.JSON(fiber.Map{
		"messages":    page,
		"has_more":    hasMore,
		"next_cursor": nextCursor,
	})
}
