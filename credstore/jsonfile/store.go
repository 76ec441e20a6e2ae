package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"trophykit/core"
)

// Store persists credential pairs to a single JSON file, keyed by game id.
// Suitable for desktop games that keep a small local save directory.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[int]core.Credentials
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[int]core.Credentials{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]core.Credentials
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		s.data[id] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]core.Credentials, len(s.data))
	for k, v := range s.data {
		raw[strconv.Itoa(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Read(_ context.Context, gameID int) (*core.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.data[gameID]; ok {
		cp := c
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) Write(_ context.Context, gameID int, creds *core.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if creds == nil || !creds.Valid() {
		delete(s.data, gameID)
	} else {
		s.data[gameID] = *creds
	}
	return s.persist()
}
