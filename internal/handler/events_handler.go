package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/skriba-app/skriba-api/internal/notify"
	"github.com/skriba-app/skriba-api/internal/session"
)

// EventsHandler streams toasts and state transitions for one session over a
// websocket.
type EventsHandler struct {
	sessions *session.Manager
	hub      *notify.Hub
	logger   zerolog.Logger
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(sessions *session.Manager, hub *notify.Hub, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		sessions: sessions,
		hub:      hub,
		logger:   logger.With().Str("component", "events_handler").Logger(),
	}
}

// Register binds the websocket route under the provided router group.
func (h *EventsHandler) Register(router fiber.Router) {
	router.Use("/:id/events", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if _, err := h.sessions.Get(c.Params("id")); err != nil {
			return fiber.ErrNotFound
		}
		c.Locals("session_id", c.Params("id"))
		return c.Next()
	})

	router.Get("/:id/events", websocket.New(h.handleConnection))
}

func (h *EventsHandler) handleConnection(conn *websocket.Conn) {
	sessionID, _ := conn.Locals("session_id").(string)
	if sessionID == "" {
		_ = conn.Close()
		return
	}

	events, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	h.logger.Info().Str("session_id", sessionID).Msg("events websocket connected")
	defer h.logger.Info().Str("session_id", sessionID).Msg("events websocket disconnected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event := <-events:
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
