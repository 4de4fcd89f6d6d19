// Package session keeps one in-memory session per signed-in user. A session
// owns that user's movie list managers, so list state survives between
// requests until sign-out or until the session sits idle too long.
package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/popcorn/popcorn/internal/movielist"
)

// DefaultIdleTimeout is used when Config.IdleTimeout is zero.
const DefaultIdleTimeout = 2 * time.Hour

// BroadcasterFunc returns the event sink for one user's list managers.
type BroadcasterFunc func(userID string) movielist.Broadcaster

// Config configures a Manager.
type Config struct {
	IdleTimeout time.Duration
	Clock       clockwork.Clock
	// Lists is copied into every session's registry. Broadcaster is
	// replaced per user when BroadcasterFor is set.
	Lists          movielist.Options
	BroadcasterFor BroadcasterFunc
}

// Session is one user's list state.
type Session struct {
	UserID    string
	Lists     *movielist.Registry
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Manager tracks live sessions by user id.
type Manager struct {
	fetcher movielist.Fetcher
	cfg     Config
	clock   clockwork.Clock
	base    zerolog.Logger
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager whose list managers fetch through fetcher.
func NewManager(fetcher movielist.Fetcher, cfg Config, logger zerolog.Logger) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		fetcher:  fetcher,
		cfg:      cfg,
		clock:    clock,
		base:     logger,
		logger:   logger.With().Str("component", "session").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for userID, creating it on first use, and marks it as seen.
func (m *Manager) Get(userID string) *Session {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.touch(now)
		return s
	}

	opts := m.cfg.Lists
	if m.cfg.BroadcasterFor != nil {
		opts.Broadcaster = m.cfg.BroadcasterFor(userID)
	}
	opts.Logger = m.base.With().Str("userId", userID).Logger()

	s := &Session{
		UserID:    userID,
		Lists:     movielist.NewRegistry(m.fetcher, opts),
		CreatedAt: now,
		lastSeen:  now,
	}
	m.sessions[userID] = s
	m.logger.Debug().Str("userId", userID).Msg("Session started")
	return s
}

// Lookup returns the session for userID without creating or touching it.
func (m *Manager) Lookup(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// End drops the session for userID. It reports whether one existed.
func (m *Manager) End(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; !ok {
		return false
	}
	delete(m.sessions, userID)
	m.logger.Debug().Str("userId", userID).Msg("Session ended")
	return true
}

// Sweep drops every session idle for longer than the idle timeout and
// returns how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.clock.Now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info().Int("removed", removed).Int("remaining", len(m.sessions)).Msg("Swept idle sessions")
	}
	return removed
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
