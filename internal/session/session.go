// Package session ties one calculator engine, its history and the AI
// solver together behind the three keypad modes of a single UI session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"omnicalc/internal/engine"
	"omnicalc/internal/history"
	"omnicalc/internal/solver"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrUnknownMode     = errors.New("unknown mode")
	ErrKeyUnavailable  = errors.New("key is not on this keypad")
	ErrModeUnavailable = errors.New("not available in this mode")
	ErrEmptyQuery      = errors.New("query is empty")
	ErrSolverBusy      = errors.New("a solve request is already in flight")
)

// AIPrefix marks history items produced by the solver.
const AIPrefix = "AI: "

type Mode string

const (
	Standard   Mode = "standard"
	Scientific Mode = "scientific"
	AI         Mode = "ai"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Standard, Scientific, AI:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) allows(k engine.Key) error {
	switch m {
	case AI:
		return ErrModeUnavailable
	case Standard:
		if k.Scientific() {
			return ErrKeyUnavailable
		}
	}
	return nil
}

// Step is the outcome of one key press.
type Step struct {
	Key     string        `json:"key"`
	Kind    string        `json:"kind"`
	Display string        `json:"display"`
	Item    *history.Item `json:"item,omitempty"`
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID           string
	Mode         Mode
	State        engine.State
	History      int
	HistoryLimit int
	SolverBusy   bool
	LastAnswer   string
	CreatedAt    time.Time
}

type Session struct {
	ID        string
	CreatedAt time.Time

	history *history.Store
	solver  solver.Solver
	busy    atomic.Bool

	mu         sync.Mutex
	mode       Mode
	engine     *engine.Engine
	lastAnswer string
	emitted    []history.Item
}

// New returns a session in the given mode with a fresh calculator.
func New(id string, mode Mode, store *history.Store, s solver.Solver) *Session {
	if store == nil {
		store = history.NewStore()
	}
	if s == nil {
		s = solver.Unavailable{}
	}

	sess := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		history:   store,
		solver:    s,
		mode:      mode,
	}
	sess.engine = sess.newEngine()
	return sess
}

func (s *Session) newEngine() *engine.Engine {
	return engine.New(engine.RecorderFunc(func(expression, result string) {
		s.emitted = append(s.emitted, s.history.Add(expression, result))
	}))
}

// Press applies keypad labels in order. Every label is parsed and checked
// against the current keypad before any of them is applied.
func (s *Session) Press(labels ...string) ([]Step, error) {
	keys := make([]engine.Key, 0, len(labels))
	for _, label := range labels {
		k, err := engine.ParseKey(label)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		if err := s.mode.allows(k); err != nil {
			return nil, fmt.Errorf("%q in %s mode: %w", k.Label, s.mode, err)
		}
	}

	steps := make([]Step, 0, len(keys))
	for _, k := range keys {
		s.emitted = s.emitted[:0]
		if err := s.engine.Press(k); err != nil {
			return steps, err
		}

		step := Step{Key: k.Label, Kind: k.Kind.String(), Display: s.engine.Display()}
		if len(s.emitted) > 0 {
			item := s.emitted[0]
			step.Item = &item
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// SetMode switches keypads. Entering or leaving AI mode discards the
// calculator state; history is kept.
func (s *Session) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m != s.mode && (m == AI || s.mode == AI) {
		s.engine = s.newEngine()
	}
	s.mode = m
	return nil
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Solve sends query to the AI solver and records the answer as
// "AI: {query}". A second call while one is in flight fails with
// ErrSolverBusy; it is not queued.
func (s *Session) Solve(ctx context.Context, query string) (history.Item, error) {
	if strings.TrimSpace(query) == "" {
		return history.Item{}, ErrEmptyQuery
	}
	if mode := s.Mode(); mode != AI {
		return history.Item{}, fmt.Errorf("solve in %s mode: %w", mode, ErrModeUnavailable)
	}
	if !s.busy.CompareAndSwap(false, true) {
		return history.Item{}, ErrSolverBusy
	}
	defer s.busy.Store(false)

	answer := s.solver.Solve(ctx, query)
	item := s.history.Add(AIPrefix+query, answer)

	s.mu.Lock()
	s.lastAnswer = answer
	s.mu.Unlock()

	return item, nil
}

// Busy reports whether a solve request is outstanding.
func (s *Session) Busy() bool { return s.busy.Load() }

func (s *Session) History() []history.Item { return s.history.Items() }

func (s *Session) ClearHistory() { s.history.Clear() }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:           s.ID,
		Mode:         s.mode,
		State:        s.engine.State(),
		History:      s.history.Len(),
		HistoryLimit: s.history.Limit(),
		SolverBusy:   s.busy.Load(),
		LastAnswer:   s.lastAnswer,
		CreatedAt:    s.CreatedAt,
	}
}
