package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string // insertion order, oldest first
	maxRuns int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{records: make(map[string]*Record)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, run model.Run) error {
	if run.ID == "" {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	s.records[run.ID] = &Record{Run: run, UpdatedAt: time.Now()}

	for s.maxRuns > 0 && len(s.order) > s.maxRuns {
		delete(s.records, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *rec, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Run.StartedAt.Before(out[j].Run.StartedAt)
	})
	return out, nil
}

// MarkWritten implements Store.
func (s *MemoryStore) MarkWritten(_ context.Context, id, path string) error {
	return s.update(id, func(r *Record) {
		r.Path = path
		r.Written = true
		r.WriteError = ""
	})
}

// MarkWriteFailed implements Store.
func (s *MemoryStore) MarkWriteFailed(_ context.Context, id string, cause error) error {
	return s.update(id, func(r *Record) {
		r.Written = false
		if cause != nil {
			r.WriteError = cause.Error()
		}
	})
}

// Count returns the number of stored runs.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) update(id string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(rec)
	rec.UpdatedAt = time.Now()
	return nil
}
