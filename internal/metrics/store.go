// Package metrics keeps per-endpoint counters for calls to the statistics API.
package metrics

import (
	"sync"
	"time"
)

type FetchStats struct {
	Path        string    `json:"path"`
	Requests    int       `json:"requests"`
	Failures    int       `json:"failures"`
	LastStatus  int       `json:"last_status"`
	LastError   string    `json:"last_error,omitempty"`
	LastElapsed float64   `json:"last_elapsed_ms"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Store struct {
	mu     sync.RWMutex
	byPath map[string]FetchStats
	limit  int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 64
	}
	return &Store{byPath: make(map[string]FetchStats), limit: limit}
}

// Record folds one fetch outcome into the counters for path. status is the
// HTTP status or 0 when no response arrived.
func (s *Store) Record(path string, status int, elapsed time.Duration, err error) {
	if s == nil || path == "" {
		return
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := s.byPath[path]
	fs.Path = path
	fs.Requests++
	fs.LastStatus = status
	fs.LastElapsed = float64(elapsed.Microseconds()) / 1000
	fs.UpdatedAt = now
	if err != nil {
		fs.Failures++
		fs.LastError = err.Error()
	} else {
		fs.LastError = ""
		fs.LastSuccess = now
	}
	s.byPath[path] = fs
	if len(s.byPath) > s.limit {
		s.evictOldest()
	}
}

func (s *Store) Get(path string) (FetchStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fs, ok := s.byPath[path]
	return fs, ok
}

func (s *Store) GetAll() map[string]FetchStats {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]FetchStats, len(s.byPath))
	for path, fs := range s.byPath {
		out[path] = fs
	}
	return out
}

func (s *Store) evictOldest() {
	var oldestPath string
	var oldest time.Time
	for path, fs := range s.byPath {
		if oldestPath == "" || fs.UpdatedAt.Before(oldest) {
			oldestPath = path
			oldest = fs.UpdatedAt
		}
	}
	if oldestPath != "" {
		delete(s.byPath, oldestPath)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPath = make(map[string]FetchStats)
}
