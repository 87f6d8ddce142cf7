package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/markermove/internal/adapters/nats"
	"github.com/samirrijal/markermove/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsMessage is sent from client to subscribe/unsubscribe to marker frames.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Marker string `json:"marker"` // marker id, "" = all markers
}

func frameSubject(markerID string) string {
	if markerID == "" {
		return natsadapter.FrameWildcard
	}
	return natsadapter.FrameSubject(markerID)
}

// WebSocketHandler returns a handler that relays marker animation frames
// from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","marker":"bus-42"}; an empty
// marker means every marker. ?marker=<id> on the upgrade request subscribes
// right away.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subscribe := func(subject string) error {
			if _, exists := subs[subject]; exists {
				return nil
			}
			s, err := nc.Subscribe(subject, func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				return err
			}
			subs[subject] = s
			return nil
		}

		defer func() {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			slog.Info("ws client disconnected", "remote", remoteAddr)
		}()

		if nc == nil {
			_ = writeJSON(map[string]string{"error": "frame relay not available"})
			return
		}

		if marker := c.Query("marker"); marker != "" {
			if err := subscribe(frameSubject(marker)); err != nil {
				slog.Warn("ws initial subscribe failed", "remote", remoteAddr, "error", err)
				return
			}
		}

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Marker != "" {
				if err := validateMarkerID(m.Marker); err != nil {
					_ = writeJSON(map[string]string{"error": err.Error()})
					continue
				}
			}
			subject := frameSubject(m.Marker)

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				if err := subscribe(subject); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}
	}
}
