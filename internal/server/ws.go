package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ytdlstem/ytdlstem/internal/pipeline"
)

const (
	writeWait        = 10 * time.Second
	streamBufferSize = 16
)

// StreamMessage is one frame of the snapshot stream
type StreamMessage struct {
	Type      string             `json:"type"`
	Snapshot  *pipeline.Snapshot `json:"snapshot,omitempty"`
	Timestamp int64              `json:"timestamp"`
}

// stream sends the pipeline's current snapshot and every later one until the
// client disconnects or the pipeline closes
func (s *Server) stream(c *gin.Context) {
	o, ok := s.pipeline(c)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	snaps, unsubscribe := o.Store().Subscribe(streamBufferSize)
	defer unsubscribe()

	// Client frames are ignored; a read error means the client went away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Debug("Snapshot stream opened", "pipeline", o.Kind())
	for {
		select {
		case <-gone:
			s.logger.Debug("Snapshot stream closed by client", "pipeline", o.Kind())
			return
		case snap, ok := <-snaps:
			if !ok {
				s.send(conn, StreamMessage{Type: "closed", Timestamp: time.Now().Unix()})
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "pipeline closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := s.send(conn, StreamMessage{Type: "snapshot", Snapshot: &snap, Timestamp: time.Now().Unix()}); err != nil {
				s.logger.Debug("Snapshot stream write failed", "pipeline", o.Kind(), "error", err)
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
