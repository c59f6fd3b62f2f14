package websocket

import (
	"net/http"

	"dao-auction/internal/domain"
	"dao-auction/pkg/logger"
	"dao-auction/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades feed requests and keeps connections registered until the
// client goes away.
type Handler struct {
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewHandler(connManager domain.ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		connManager: connManager,
		log:         log,
	}
}

// HandleFeed serves GET /ws/auctions/:tokenId. A tokenId of "all" subscribes
// to every auction event.
func (h *Handler) HandleFeed(c echo.Context) error {
	feedKey := c.Param("tokenId")
	if feedKey == "" {
		feedKey = "all"
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("WebSocket upgrade failed", "error", err)
		return err
	}

	clientID := utils.GenerateID("client")
	conn := NewConnection(ws, clientID, feedKey)

	if err := h.connManager.RegisterConnection(clientID, feedKey, conn); err != nil {
		ws.Close()
		return err
	}

	// Drain the read side to notice disconnects; the feed is write-only.
	go func() {
		defer func() {
			h.connManager.UnregisterConnection(clientID, feedKey)
			ws.Close()
		}()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
