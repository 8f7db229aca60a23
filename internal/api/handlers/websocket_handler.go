package handlers

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/service"
	"github.com/hotelchat/backend/pkg/logger"
)

type WebSocketHandler struct {
	progress *service.ProgressHub
}

func NewWebSocketHandler(progress *service.ProgressHub) *WebSocketHandler {
	return &WebSocketHandler{progress: progress}
}

// HandleProgress streams crawl progress events for one hotel over a
// websocket until the crawl finishes or the client disconnects.
func (h *WebSocketHandler) HandleProgress(c *websocket.Conn) {
	hotelID := c.Params("hotel_id")
	if hotelID == "" {
		c.WriteJSON(map[string]string{"error": "hotel_id is required"})
		c.Close()
		return
	}

	logger.Info("Progress stream opened", zap.String("hotel_id", hotelID))

	events := h.progress.Subscribe(hotelID)
	defer func() {
		h.progress.Unsubscribe(hotelID, events)
		c.Close()
		logger.Info("Progress stream closed", zap.String("hotel_id", hotelID))
	}()

	// Reads are drained in the background so we notice disconnects while
	// blocked on the event channel.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-events:
			if err := c.WriteJSON(event); err != nil {
				logger.Error("Failed to write progress event", zap.Error(err))
				return
			}
			if event.Done {
				return
			}
		case <-closed:
			return
		}
	}
}
