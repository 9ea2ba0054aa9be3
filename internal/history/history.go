// Package history keeps a bounded, newest-first log of completed
// calculations for a single calculator session.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLimit is the number of items a Store keeps unless configured otherwise.
const DefaultLimit = 50

// Item is one completed calculation.
type Item struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []Item
	limit int
	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLimit caps the number of retained items. Non-positive values are ignored.
func WithLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the item ID source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		limit: DefaultLimit,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = make([]Item, 0, s.limit)
	return s
}

// Add records a calculation at the front of the log, dropping the oldest
// items beyond the limit.
func (s *Store) Add(expression, result string) Item {
	item := Item{
		ID:         s.newID(),
		Expression: expression,
		Result:     result,
		Timestamp:  s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) < s.limit {
		s.items = append(s.items, Item{})
	}
	copy(s.items[1:], s.items)
	s.items[0] = item

	return item
}

// Record implements engine.Recorder.
func (s *Store) Record(expression, result string) {
	s.Add(expression, result)
}

// Items returns a copy of the log, newest first.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Limit() int { return s.limit }

// Clear drops every item.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
}
