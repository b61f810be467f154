// Package history keeps a bounded in-memory record of submitted orders.
// Nothing here survives a restart; durable auditing is the redis
// repository's job.
package history

import (
	"sync"
	"time"
)

type Entry struct {
	Time     time.Time `json:"time"`
	OrderID  string    `json:"order_id,omitempty"`
	ClientID string    `json:"client_id,omitempty"`
	Market   string    `json:"market"`
	Side     string    `json:"side"`
	Type     string    `json:"type"`
	Size     string    `json:"size"`
	Price    string    `json:"price,omitempty"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
}

type Store struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

func NewStore(max int) *Store {
	if max <= 0 {
		max = 1000
	}
	return &Store{max: max}
}

func (s *Store) Add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
}

// List returns entries newest-first.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = e
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
