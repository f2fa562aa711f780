// Package memory is an in-process history.Store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
)

// Store keeps entries in a map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]history.Entry
}

var _ history.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]history.Entry)}
}

// Get implements history.Store.
func (s *Store) Get(_ context.Context, key string) (*history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, errors.NewNotFoundError("history entry", key)
	}
	return &e, nil
}

// Put implements history.Store.
func (s *Store) Put(_ context.Context, key string, entry history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

// Delete implements history.Store. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// List implements history.Store.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
