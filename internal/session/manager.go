// Package session manages per-session engines. Each session owns an
// isolated key-value store, channel logs, tracker, and conversation
// map; nothing leaks between sessions.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gs52g/deskchat/internal/chat"
	"github.com/gs52g/deskchat/internal/infrastructure/logging"
	"github.com/gs52g/deskchat/internal/infrastructure/monitoring"
	"github.com/gs52g/deskchat/internal/shared/id"
	"github.com/gs52g/deskchat/internal/shared/kv"
)

// ErrNotFound reports a lookup for a session that does not exist or
// has expired.
var ErrNotFound = errors.New("session not found")

// Session is one client's isolated chat state.
type Session struct {
	ID       id.SessionID
	Engine   *chat.Engine
	Created  time.Time
	lastSeen time.Time
}

// Config assembles the shared pieces every session engine needs.
type Config struct {
	Channels    []chat.ChannelSpec
	Caller      chat.Caller
	Credentials chat.Credentials
	Stream      chat.StreamOptions
	UserName    string
	UserAvatar  string
	TTL         time.Duration
	Logger      *logging.Logger
	Metrics     *monitoring.Metrics
}

// Manager creates, looks up, and expires sessions.
type Manager struct {
	cfg Config
	log *logging.Logger

	mu       sync.RWMutex
	sessions map[id.SessionID]*Session
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return &Manager{
		cfg:      cfg,
		log:      cfg.Logger,
		sessions: make(map[id.SessionID]*Session),
	}
}

// Create builds a fresh session with its own store and engine.
func (m *Manager) Create() *Session {
	mem := kv.NewMemory()
	engine := chat.NewEngine(chat.EngineOptions{
		Store:         chat.NewStore(m.cfg.Channels, mem),
		Tracker:       chat.NewTracker(mem),
		Conversations: chat.NewConversations(mem),
		Caller:        m.cfg.Caller,
		Credentials:   m.cfg.Credentials,
		Stream:        m.cfg.Stream,
		UserName:      m.cfg.UserName,
		UserAvatar:    m.cfg.UserAvatar,
		Logger:        m.log,
		Metrics:       m.cfg.Metrics,
	})

	now := time.Now()
	sess := &Session{
		ID:       id.NewSessionID(),
		Engine:   engine,
		Created:  now,
		lastSeen: now,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	count := len(m.sessions)
	m.mu.Unlock()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SetSessionsActive(count)
	}
	m.log.Info("session created", zap.String("session_id", sess.ID.String()))
	return sess
}

// Get returns a live session and marks it as seen.
func (m *Manager) Get(sessionID id.SessionID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	sess.lastSeen = time.Now()
	return sess, nil
}

// Remove deletes a session.
func (m *Manager) Remove(sessionID id.SessionID) {
	m.mu.Lock()
	_, existed := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	count := len(m.sessions)
	m.mu.Unlock()

	if existed {
		if m.cfg.Metrics != nil {
			m.cfg.Metrics.SetSessionsActive(count)
		}
		m.log.Info("session removed", zap.String("session_id", sessionID.String()))
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor sweeps idle sessions until ctx is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// sweep removes sessions idle past the TTL.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.cfg.TTL)

	m.mu.Lock()
	var expired []id.SessionID
	for sessionID, sess := range m.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sessionID)
			delete(m.sessions, sessionID)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if len(expired) == 0 {
		return
	}
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SetSessionsActive(count)
	}
	for _, sessionID := range expired {
		m.log.Info("session expired", zap.String("session_id", sessionID.String()))
	}
}
