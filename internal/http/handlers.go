// Package http contains the gin handlers for the chat service: session
// and channel endpoints backed by per-session engines, plus thin
// proxies in front of the MISO platform so API keys never reach the
// browser.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gs52g/deskchat/internal/infrastructure/config"
	"github.com/gs52g/deskchat/internal/infrastructure/logging"
	"github.com/gs52g/deskchat/internal/session"
	"github.com/gs52g/deskchat/internal/upstream"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	cfg      *config.Config
	sessions *session.Manager
	miso     *upstream.Client
	log      *logging.Logger
}

// NewHandlers creates a new handler set.
func NewHandlers(cfg *config.Config, sessions *session.Manager, miso *upstream.Client, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{
		cfg:      cfg,
		sessions: sessions,
		miso:     miso,
		log:      log,
	}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "deskchat",
		"version": "1.0.0",
	})
}

// Health handles health checks.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Count(),
	})
}
