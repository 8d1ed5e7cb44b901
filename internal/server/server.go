// Package server assembles the deskchat service: configuration, logging,
// metrics, the upstream client, session manager, HTTP handlers, and the
// WebSocket stream, behind one net/http server with graceful shutdown.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gs52g/deskchat/internal/api/middleware"
	"github.com/gs52g/deskchat/internal/chat"
	apihttp "github.com/gs52g/deskchat/internal/http"
	"github.com/gs52g/deskchat/internal/infrastructure/config"
	"github.com/gs52g/deskchat/internal/infrastructure/logging"
	"github.com/gs52g/deskchat/internal/infrastructure/monitoring"
	"github.com/gs52g/deskchat/internal/session"
	"github.com/gs52g/deskchat/internal/upstream"
	"github.com/gs52g/deskchat/internal/ws"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	metrics  *monitoring.Metrics

	janitorCancel context.CancelFunc
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.NewDefault()
	}

	metrics := monitoring.NewMetrics()

	miso := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		UserID:  cfg.Upstream.UserID,
		Timeout: cfg.Upstream.Timeout,
	})

	channels, err := chat.DefaultChannels()
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(session.Config{
		Channels: channels,
		Caller:   miso,
		Credentials: chat.Credentials{
			TBM:        cfg.Upstream.TBMKey,
			EnergyNews: cfg.Upstream.EnergyNewsKey,
			DesignRisk: cfg.Upstream.DesignRiskKey,
			Upload:     cfg.Upstream.UploadKey,
		},
		Stream: chat.StreamOptions{
			ChunkRunes: cfg.Stream.ChunkRunes,
			Delay:      cfg.Stream.Delay,
		},
		TTL:     cfg.Session.TTL,
		Logger:  log,
		Metrics: metrics,
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	apihttp.NewHandlers(cfg, sessions, miso, log).Register(router)
	router.GET("/stream", ws.NewHandler(sessions, log, metrics).HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := &Server{
		cfg:      cfg,
		log:      log,
		router:   router,
		sessions: sessions,
		metrics:  metrics,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	return srv, nil
}

// Run starts the session janitor and serves until the listener fails
// or Shutdown is called.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.janitorCancel = cancel
	s.sessions.StartJanitor(ctx, s.cfg.Session.SweepInterval)

	s.log.Info("server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the janitor and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.janitorCancel != nil {
		s.janitorCancel()
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
