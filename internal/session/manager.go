package session

import (
	"fmt"
	"sync"
	"time"

	"omnicalc/internal/history"
	"omnicalc/internal/solver"

	"github.com/google/uuid"
)

// Manager owns the live sessions of a process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	solver       solver.Solver
	historyLimit int
	now          func() time.Time
	newID        func() string
}

type ManagerOption func(*Manager)

// WithHistoryLimit sets the history cap of every new session.
func WithHistoryLimit(n int) ManagerOption {
	return func(m *Manager) { m.historyLimit = n }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) ManagerOption {
	return func(m *Manager) { m.newID = newID }
}

// NewManager returns an empty manager whose sessions solve through s.
func NewManager(s solver.Solver, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:     make(map[string]*Session),
		solver:       s,
		historyLimit: history.DefaultLimit,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a session. An empty mode means standard.
func (m *Manager) Create(mode Mode) (*Session, error) {
	if mode == "" {
		mode = Standard
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	store := history.NewStore(
		history.WithLimit(m.historyLimit),
		history.WithClock(m.now),
	)
	s := New(m.newID(), mode, store, m.solver)
	s.CreatedAt = m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return nil, fmt.Errorf("session id %q already in use", s.ID)
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s, nil
}

// Delete ends a session and drops its state and history.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
