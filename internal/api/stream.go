package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"episodic/internal/logging"
	"episodic/internal/podcast"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is one frame on the generation event stream.
type StreamMessage struct {
	Type     string            `json:"type"`
	Progress *podcast.Progress `json:"progress,omitempty"`
	Status   *GenerationStatus `json:"status,omitempty"`
}

// handleGenerationEvents replays the current attempt's events and then
// streams new ones. The final frame carries the full status and the server
// closes the connection.
func (s *Server) handleGenerationEvents(c *gin.Context) {
	g, ok := s.currentGeneration(c)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.WarnWithContext(s.logger, "websocket upgrade failed", "stream_upgrade_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "client receives no live progress"),
		)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		// Drain client frames so control messages are processed.
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	next := 0
	for {
		events, done, changed := g.since(next)
		for i := range events {
			if err := writeFrame(conn, StreamMessage{Type: "progress", Progress: &events[i]}); err != nil {
				return
			}
		}
		next += len(events)
		if done {
			status := g.status()
			_ = writeFrame(conn, StreamMessage{Type: "status", Status: &status})
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(status.State)))
			return
		}
		select {
		case <-changed:
		case <-closed:
			return
		case <-s.base.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}
