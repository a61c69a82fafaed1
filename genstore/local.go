package genstore

import (
	"context"
	"sync"
)

// LocalGenStore keeps region generations in-process.
// Generations reset on restart, which is only safe when the entries they guard
// live in the same process (ristretto, bigcache).
type LocalGenStore struct {
	mu   sync.RWMutex
	gens map[string]uint64
}

var _ GenStore = (*LocalGenStore)(nil)

func NewLocalGenStore() *LocalGenStore {
	return &LocalGenStore{gens: make(map[string]uint64)}
}

func (s *LocalGenStore) Current(_ context.Context, region string) (uint64, error) {
	s.mu.RLock()
	g := s.gens[region]
	s.mu.RUnlock()
	return g, nil
}

func (s *LocalGenStore) Bump(_ context.Context, region string) (uint64, error) {
	s.mu.Lock()
	s.gens[region]++
	g := s.gens[region]
	s.mu.Unlock()
	return g, nil
}

func (s *LocalGenStore) Close(context.Context) error { return nil }
