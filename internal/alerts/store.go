package alerts

import (
	"context"
	"sync"
	"time"

	"transitdash/internal/model"
)

// Store holds the latest alert feed, keyed by alert id. Re-ingesting an id
// replaces it in place; past the limit the least recently ingested id is
// evicted.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]int
	buf     []model.Alert
	limit   int
	updated time.Time
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{limit: limit, byID: make(map[string]int)}
}

func (s *Store) Add(alert model.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = time.Now().UTC()
	if alert.ID != "" {
		if i, ok := s.byID[alert.ID]; ok {
			s.buf = append(s.buf[:i], s.buf[i+1:]...)
			s.reindex()
		}
	}
	if len(s.buf) >= s.limit {
		s.buf = s.buf[1:]
		s.reindex()
	}
	s.buf = append(s.buf, alert)
	if alert.ID != "" {
		s.byID[alert.ID] = len(s.buf) - 1
	}
}

func (s *Store) reindex() {
	clear(s.byID)
	for i, a := range s.buf {
		if a.ID != "" {
			s.byID[a.ID] = i
		}
	}
}

// List returns the most recent limit alerts in ingestion order; limit <= 0
// returns everything.
func (s *Store) List(limit int) []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.Alert, 0, limit)
	out = append(out, s.buf[len(s.buf)-limit:]...)
	return out
}

// Alerts lets the store stand in for the upstream API as an alert source.
func (s *Store) Alerts(context.Context) ([]model.Alert, error) {
	return s.List(0), nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
	clear(s.byID)
}
