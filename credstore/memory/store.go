package memory

import (
	"context"
	"sync"

	"trophykit/core"
)

// Store is a concurrent in-memory credential store, keyed by game id.
type Store struct {
	mu    sync.Mutex
	pairs map[int]core.Credentials
}

func New() *Store { return &Store{pairs: map[int]core.Credentials{}} }

func (s *Store) Read(_ context.Context, gameID int) (*core.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.pairs[gameID]; ok {
		cp := c
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) Write(_ context.Context, gameID int, creds *core.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if creds == nil || !creds.Valid() {
		delete(s.pairs, gameID)
		return nil
	}
	s.pairs[gameID] = *creds
	return nil
}

var _ interface {
	Read(context.Context, int) (*core.Credentials, error)
	Write(context.Context, int, *core.Credentials) error
} = (*Store)(nil)
