// Package live streams admission and check-in events to the admin dashboard over websockets.
package live

import (
	"context"
	"encoding/json"
	"time"

	"club25-backend/internal/infrastructure/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

const (
	dropFilterLocal = "live_drop_id"
	pingInterval    = 30 * time.Second
)

// Handlers relays broker events to connected dashboards.
type Handlers struct {
	Broker realtime.Broker
}

// Upgrade rejects plain HTTP requests and remembers the optional ?drop_id filter.
func (h *Handlers) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals(dropFilterLocal, c.Query("drop_id"))
	return c.Next()
}

// Stream GET /api/admin/live (websocket)
func (h *Handlers) Stream(conn *websocket.Conn) {
	filter, _ := conn.Locals(dropFilterLocal).(string)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsubscribe, err := h.Broker.Subscribe(ctx)
	if err != nil {
		log.Error().Err(err).Msg("live: subscribe failed")
		_ = conn.Close()
		return
	}
	defer unsubscribe()

	// the client never sends anything useful; reading only detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := relay(events, filter, conn, closed, pingInterval); err != nil && !websocket.IsCloseError(err) {
		log.Info().Err(err).Msg("live: connection ended")
	}
}

type messageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// relay writes matching events to w until closed fires, the feed ends or a write fails.
func relay(events <-chan realtime.Event, filter string, w messageWriter, closed <-chan struct{}, ping time.Duration) error {
	hello, _ := json.Marshal(fiber.Map{"type": "hello", "dropId": filter})
	if err := w.WriteMessage(websocket.TextMessage, hello); err != nil {
		return err
	}
	ticker := time.NewTicker(ping)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if filter != "" && e.DropID != filter {
				continue
			}
			b, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := w.WriteMessage(websocket.TextMessage, b); err != nil {
				return err
			}
		case <-ticker.C:
			if err := w.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
