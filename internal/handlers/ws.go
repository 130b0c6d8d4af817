package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"

	"github.com/Astrobubu/StageTimer/internal/security"
	"github.com/Astrobubu/StageTimer/internal/services"
)

type WSHandler struct {
	hub     *services.Hub
	origins *security.OriginValidator
}

func NewWSHandler(hub *services.Hub, origins *security.OriginValidator) *WSHandler {
	return &WSHandler{
		hub:     hub,
		origins: origins,
	}
}

// HandleWebSocket upgrades the request and hands the connection to the hub.
// The connection gets an opaque identity here; it is a member of nothing
// until it sends a join command.
func (h *WSHandler) HandleWebSocket(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	if err := security.ValidateRoomID(roomID); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid room id"})
	}

	conn, err := websocket.Accept(re.Response, re.Request, h.origins.GetAcceptOptions())
	if err != nil {
		return err
	}

	connID := uuid.New().String()
	client := services.NewClient(conn, h.hub, roomID, connID)
	h.hub.Register(client)
	client.Start()

	// The pumps own the connection from here; returning does not close it.
	return nil
}
