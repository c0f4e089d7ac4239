package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ocrdoc/internal/export"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/pipeline"
)

// Manager keeps sessions in memory keyed by UUID.
type Manager struct {
	pipeline  *pipeline.Pipeline
	exporter  *export.Exporter
	languages []string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager whose sessions share one pipeline and
// exporter and start with the given language selection.
func NewManager(p *pipeline.Pipeline, e *export.Exporter, defaultLanguages []string) *Manager {
	return &Manager{
		pipeline:  p,
		exporter:  e,
		languages: append([]string(nil), defaultLanguages...),
		sessions:  make(map[string]*Session),
	}
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.pipeline, m.exporter, m.languages)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log := logger.WithComponent("session")
	log.Debug().Str("session", s.ID).Msg("Session created")
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets the session with id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	log := logger.WithComponent("session")
	log.Debug().Str("session", id).Msg("Session deleted")
	return nil
}

// IDs returns the IDs of all sessions, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune deletes idle sessions whose last change is older than maxIdle and
// returns how many were removed. Sessions with a running batch are kept.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if !s.Busy() && s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		log := logger.WithComponent("session")
		log.Info().Int("sessions", len(stale)).Msg("Pruned idle sessions")
	}
	return len(stale)
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
