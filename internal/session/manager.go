package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skriba-app/skriba-api/internal/notify"
	"github.com/skriba-app/skriba-api/internal/observability"
	"github.com/skriba-app/skriba-api/internal/scorer"
)

// ErrSessionNotFound indicates the session id is unknown or already evicted.
var ErrSessionNotFound = errors.New("session not found")

// Manager is the in-memory registry of live grading sessions. Sessions are
// volatile by design; nothing survives a process restart.
type Manager struct {
	scorer   scorer.Scorer
	notifier notify.Notifier
	logger   zerolog.Logger
	idleTTL  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager constructs a session registry. Sessions idle longer than
// idleTTL are evicted by Sweep; a zero TTL disables eviction.
func NewManager(sc scorer.Scorer, notifier notify.Notifier, logger zerolog.Logger, idleTTL time.Duration) *Manager {
	return &Manager{
		scorer:   sc,
		notifier: notifier,
		logger:   logger.With().Str("component", "session_manager").Logger(),
		idleTTL:  idleTTL,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a new idle session and returns it.
func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.scorer, m.notifier, m.logger)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	count := len(m.sessions)
	m.mu.Unlock()

	observability.SessionsActive().Set(float64(count))
	m.logger.Info().Str("session_id", s.ID()).Msg("session created")
	return s
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete tears a session down and removes it from the registry.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	s.Teardown()
	observability.SessionsActive().Set(float64(count))
	m.logger.Info().Str("session_id", id).Msg("session deleted")
	return nil
}

// Sweep evicts sessions idle beyond the TTL and returns how many went.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}

	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		s.Teardown()
	}

	if len(expired) > 0 {
		observability.SessionsActive().Set(float64(count))
		m.logger.Info().Int("evicted", len(expired)).Msg("idle sessions evicted")
	}
	return len(expired)
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.idleTTL <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}
