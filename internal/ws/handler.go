package ws

import (
	"net/http"
	"strings"

	"skill-radar/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Authorizer decides whether the request may watch subjectID (uuid.Nil means all subjects).
type Authorizer func(c fiber.Ctx, subjectID uuid.UUID) error

type Handler struct {
	hub       *Hub
	authorize Authorizer
	log       *zap.Logger
}

func NewHandler(hub *Hub, authorize Authorizer, log *zap.Logger) *Handler {
	return &Handler{hub: hub, authorize: authorize, log: logger.OrNop(log)}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleEvents upgrades to a websocket streaming pipeline events, optionally filtered by
// the subject_id query parameter.
func (h *Handler) HandleEvents(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}

	var subjectID uuid.UUID
	if raw := strings.TrimSpace(c.Query("subject_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid subject_id")
		}
		subjectID = id
	}
	if h.authorize != nil {
		if err := h.authorize(c, subjectID); err != nil {
			return err
		}
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(h.hub, conn, subjectID)
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}
