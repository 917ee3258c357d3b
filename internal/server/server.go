// Package server exposes the HTTP and websocket surface of the voicecare
// backend.
package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/voicecare/voicecare/internal/config"
	"github.com/voicecare/voicecare/internal/relay"
	"github.com/voicecare/voicecare/internal/store"
	"github.com/voicecare/voicecare/internal/ws"
	"github.com/voicecare/voicecare/pkg/metrics"
	"github.com/voicecare/voicecare/pkg/stt"
	"github.com/voicecare/voicecare/pkg/tts"
)

// Deps are the wired components the server serves.
type Deps struct {
	Config  *config.Config
	Store   *store.Store
	Conns   *ws.Manager
	Relay   *relay.Relay
	STT     *stt.Selector
	TTS     *tts.Selector
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Server is the fiber application plus its dependencies.
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	store   *store.Store
	conns   *ws.Manager
	relay   *relay.Relay
	stt     *stt.Selector
	tts     *tts.Selector
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// New builds the fiber app and mounts all routes.
func New(deps Deps) *Server {
	s := &Server{
		cfg:     deps.Config,
		store:   deps.Store,
		conns:   deps.Conns,
		relay:   deps.Relay,
		stt:     deps.STT,
		tts:     deps.TTS,
		metrics: deps.Metrics,
		logger:  deps.Logger.With("component", "server"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "voicecare",
		DisableStartupMessage: true,
		// leave headroom over the audio cap for multipart framing
		BodyLimit: deps.Config.MaxAudioBytes + 1024*1024,
	})
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)
	app.Get("/debug/connections", s.handleDebugConnections)

	api := app.Group("/api/v1")
	api.Get("/metrics", s.handleMetrics)

	api.Post("/stt/transcribe", s.handleTranscribe)
	api.Get("/stt/languages", s.handleSTTLanguages)

	api.Post("/tts/speak", s.handleSpeak)
	api.Get("/tts/voices", s.handleVoices)

	api.Post("/users", s.handleCreateUser)
	api.Get("/users", s.handleListUsers)

	api.Post("/conversations", s.handleCreateConversation)
	api.Get("/conversations/:id/messages", s.handleListMessages)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(s.handleWS))

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured address until shutdown.
func (s *Server) Listen() error {
	s.logger.Info("listening", "addr", s.cfg.Addr())
	return s.app.Listen(s.cfg.Addr())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
