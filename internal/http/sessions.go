package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gs52g/deskchat/internal/chat"
	"github.com/gs52g/deskchat/internal/session"
	"github.com/gs52g/deskchat/internal/shared/id"
)

// CreateSession opens a new session with fresh channel state.
func (h *Handlers) CreateSession(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID})
}

// DeleteSession closes a session and discards its state.
func (h *Handlers) DeleteSession(c *gin.Context) {
	h.sessions.Remove(id.SessionID(c.Param("id")))
	c.Status(http.StatusNoContent)
}

// ListChannels returns the session's channel catalog.
func (h *Handlers) ListChannels(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": sess.Engine.Channels()})
}

// ChannelMessages returns a channel's log, reconciling any task whose
// result arrived while the client was elsewhere.
func (h *Handlers) ChannelMessages(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	msgs, err := sess.Engine.Switch(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type submitRequest struct {
	Text        string `json:"text"`
	Attachments []struct {
		Name   string `json:"name"`
		FileID string `json:"file_id"`
		Data   string `json:"data"` // base64, for files not yet uploaded
	} `json:"attachments"`
}

// SubmitMessage posts a message to a channel. Agent dispatches return
// immediately with the loading placeholder; the result lands via the
// WebSocket or the next ChannelMessages call.
func (h *Handlers) SubmitMessage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "잘못된 요청 형식입니다."})
		return
	}

	attachments := make([]chat.Attachment, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(att.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "첨부 파일 데이터가 올바르지 않습니다."})
			return
		}
		if int64(len(data)) > h.cfg.Upload.MaxBytes {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "파일 크기 초과",
				"detail": "파일 크기는 10MB를 초과할 수 없습니다.",
			})
			return
		}
		attachments = append(attachments, chat.Attachment{
			Name:   att.Name,
			FileID: att.FileID,
			Data:   data,
		})
	}

	msg, err := sess.Engine.Submit(c.Param("key"), req.Text, attachments)
	if err != nil {
		var verr *chat.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "validation": true})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": msg})
}

// ResetChannel drops a channel back to its fixture seed.
func (h *Handlers) ResetChannel(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := sess.Engine.Reset(c.Param("key")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// session resolves the :id path parameter, writing the error reply on
// failure.
func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.sessions.Get(id.SessionID(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "세션을 찾을 수 없습니다. 새 세션을 생성해주세요."})
		return nil, false
	}
	return sess, true
}
