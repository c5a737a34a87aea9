package handlers

import (
	"sync"
	"time"

	"dca-backtest/internal/backtest"

	"github.com/google/uuid"
)

// StoredResult is a completed backtest kept for later retrieval.
type StoredResult struct {
	ID        string
	CreatedAt time.Time
	Result    *backtest.Result
}

// ResultStore keeps the most recent results in memory, keyed by run id.
// Once full, the oldest result is evicted.
type ResultStore struct {
	mu       sync.RWMutex
	capacity int
	byID     map[string]*StoredResult
	order    []string
}

func NewResultStore(capacity int) *ResultStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &ResultStore{
		capacity: capacity,
		byID:     make(map[string]*StoredResult),
	}
}

// Put stores res under a new id and returns the id.
func (s *ResultStore) Put(res *backtest.Result) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
	}
	s.byID[id] = &StoredResult{ID: id, CreatedAt: time.Now().UTC(), Result: res}
	s.order = append(s.order, id)
	return id
}

func (s *ResultStore) Get(id string) (*StoredResult, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	return r, ok
}

func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
