// Package ws pushes live chat events over WebSocket: appended messages,
// streamed result chunks, and task resolutions for one session.
package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gs52g/deskchat/internal/chat"
	"github.com/gs52g/deskchat/internal/infrastructure/logging"
	"github.com/gs52g/deskchat/internal/infrastructure/monitoring"
	"github.com/gs52g/deskchat/internal/session"
	"github.com/gs52g/deskchat/internal/shared/id"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-host deployment, CORS handled at the HTTP layer
	},
}

// inbound is a client frame.
type inbound struct {
	Type        string `json:"type"`
	Channel     string `json:"channel"`
	Text        string `json:"text"`
	Attachments []struct {
		Name   string `json:"name"`
		FileID string `json:"file_id"`
	} `json:"attachments"`
}

// Handler manages WebSocket connections.
type Handler struct {
	sessions *session.Manager
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler.
func NewHandler(sessions *session.Manager, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{
		sessions: sessions,
		log:      log,
		metrics:  metrics,
	}
}

// HandleConnection upgrades the request and serves one session's event
// stream until the client goes away. The session comes from the
// session query parameter.
func (h *Handler) HandleConnection(c *gin.Context) {
	sess, err := h.sessions.Get(id.SessionID(c.Query("session")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "세션을 찾을 수 없습니다. 새 세션을 생성해주세요."})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}
	h.log.Info("websocket connected",
		zap.String("conn_id", connID),
		zap.String("session_id", sess.ID.String()),
	)

	sink := &connSink{conn: conn, metrics: h.metrics}
	sess.Engine.SetSink(sink)
	defer sess.Engine.ClearSink(sink)

	sink.write(gin.H{"type": "system", "message": "connected"})

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			h.log.Info("websocket closed",
				zap.String("conn_id", connID),
				zap.Error(err),
			)
			return
		}
		if h.metrics != nil {
			h.metrics.WSMessages.WithLabelValues("in", msg.Type).Inc()
		}

		switch msg.Type {
		case "send":
			h.handleSend(sink, sess, msg)
		case "switch":
			h.handleSwitch(sink, sess, msg)
		case "ping":
			sink.write(gin.H{"type": "pong"})
		default:
			sink.write(gin.H{"type": "error", "error": "unknown message type: " + msg.Type})
		}
	}
}

func (h *Handler) handleSend(sink *connSink, sess *session.Session, msg inbound) {
	attachments := make([]chat.Attachment, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, chat.Attachment{Name: att.Name, FileID: att.FileID})
	}

	if _, err := sess.Engine.Submit(msg.Channel, msg.Text, attachments); err != nil {
		if verr, ok := err.(*chat.ValidationError); ok {
			sink.write(gin.H{"type": "validation", "channel": msg.Channel, "error": verr.Message})
			return
		}
		sink.write(gin.H{"type": "error", "error": err.Error()})
	}
}

func (h *Handler) handleSwitch(sink *connSink, sess *session.Session, msg inbound) {
	msgs, err := sess.Engine.Switch(msg.Channel)
	if err != nil {
		sink.write(gin.H{"type": "error", "error": err.Error()})
		return
	}
	sink.write(gin.H{"type": "messages", "channel": msg.Channel, "messages": msgs})
}

// connSink delivers engine events to one connection. gorilla/websocket
// allows a single concurrent writer, so every write holds the mutex.
type connSink struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	metrics *monitoring.Metrics
}

func (s *connSink) write(payload gin.H) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(payload); err != nil {
		return
	}
	if s.metrics != nil {
		if t, ok := payload["type"].(string); ok {
			s.metrics.WSMessages.WithLabelValues("out", t).Inc()
		}
	}
}

func (s *connSink) MessageAppended(channel string, msg chat.Message) {
	s.write(gin.H{"type": "message", "channel": channel, "message": msg})
}

func (s *connSink) StreamDelta(channel string, taskID id.TaskID, text string, done bool) {
	s.write(gin.H{
		"type":    "delta",
		"channel": channel,
		"task_id": taskID,
		"content": text,
		"done":    done,
	})
}

func (s *connSink) TaskResolved(channel string, msg chat.Message) {
	s.write(gin.H{"type": "resolved", "channel": channel, "task_id": msg.TaskID, "message": msg})
}
