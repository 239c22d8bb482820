package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farecast/internal/modules/reveal"
	"farecast/internal/types"
)

const (
	CloseClient   = "client"
	CloseIdle     = "idle"
	CloseShutdown = "shutdown"
)

// Manager tracks open sessions and expires idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[types.ID]*Session
	deps     Deps
	newLoop  NewLoopFunc
	idleTTL  time.Duration
}

// NewManager creates sessions with deps on loops built by newLoop. A nil
// newLoop uses reveal.NewEventLoop.
func NewManager(deps Deps, newLoop NewLoopFunc, idleTTL time.Duration) *Manager {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if newLoop == nil {
		log := deps.Log
		newLoop = func() reveal.Loop { return reveal.NewEventLoop(log) }
	}
	return &Manager{
		sessions: make(map[types.ID]*Session),
		deps:     deps,
		newLoop:  newLoop,
		idleTTL:  idleTTL,
	}
}

func (m *Manager) Create() *Session {
	s := New(types.ID(uuid.NewString()), m.newLoop(), m.deps)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.deps.Metrics.SessionOpened()
	m.deps.Log.Info("session created", zap.String("session_id", string(s.ID())))
	return s
}

func (m *Manager) Get(id types.ID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close closes and forgets a session.
func (m *Manager) Close(id types.ID) error {
	return m.close(id, CloseClient)
}

func (m *Manager) close(id types.ID, reason string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	if m.deps.OnClose != nil {
		m.deps.OnClose(id)
	}
	m.deps.Metrics.SessionClosed(reason)
	m.deps.Log.Info("session closed", zap.String("session_id", string(id)), zap.String("reason", reason))
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL. Sessions with an open
// subscription are never idle.
func (m *Manager) Sweep() int {
	cutoff := m.deps.Now().Add(-m.idleTTL)
	m.mu.RLock()
	var idle []types.ID
	for id, s := range m.sessions {
		if s.Subscribers() == 0 && s.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range idle {
		if m.close(id, CloseIdle) == nil {
			n++
		}
	}
	return n
}

// RunSweeper sweeps on every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.deps.Log.Info("idle sessions closed", zap.Int("count", n))
			}
		}
	}
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	ids := make([]types.ID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.close(id, CloseShutdown)
	}
}
