package session

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&gatedScorer{}, &stubNotifier{}, zerolog.Nop(), ttl)
}

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager(0)

	s := m.Create()
	require.NotEmpty(t, s.ID())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	require.Same(t, s, got)
}

func TestManagerGetUnknownSession(t *testing.T) {
	m := newTestManager(0)

	_, err := m.Get("nope")
	require.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestManagerDelete(t *testing.T) {
	m := newTestManager(0)

	s := m.Create()
	require.NoError(t, m.Delete(s.ID()))

	_, err := m.Get(s.ID())
	require.True(t, errors.Is(err, ErrSessionNotFound))

	require.True(t, errors.Is(m.Delete(s.ID()), ErrSessionNotFound))
}

func TestManagerSweepEvictsIdleSessions(t *testing.T) {
	m := newTestManager(time.Minute)

	idle := m.Create()
	fresh := m.Create()

	idle.mu.Lock()
	idle.lastActive = time.Now().Add(-2 * time.Minute)
	idle.mu.Unlock()

	require.Equal(t, 1, m.Sweep())

	_, err := m.Get(idle.ID())
	require.True(t, errors.Is(err, ErrSessionNotFound))

	_, err = m.Get(fresh.ID())
	require.NoError(t, err)
}

func TestManagerSweepDisabledWithoutTTL(t *testing.T) {
	m := newTestManager(0)

	s := m.Create()
	s.mu.Lock()
	s.lastActive = time.Now().Add(-24 * time.Hour)
	s.mu.Unlock()

	require.Zero(t, m.Sweep())

	_, err := m.Get(s.ID())
	require.NoError(t, err)
}
