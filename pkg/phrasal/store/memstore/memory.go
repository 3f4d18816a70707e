// Package memstore is an in-memory store.Store used by tests.
package memstore

import (
	"context"
	"sync"

	"github.com/cognicore/phrasal/pkg/phrasal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu         sync.RWMutex
	alignments []store.Alignment
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Put records an alignment.
func (s *Store) Put(ctx context.Context, a store.Alignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alignments = append(s.alignments, copyAlignment(a))
	return nil
}

// Top returns up to limit alignments in stored (rank) order.
func (s *Store) Top(ctx context.Context, limit int) ([]store.Alignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.alignments)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]store.Alignment, n)
	for i := 0; i < n; i++ {
		out[i] = copyAlignment(s.alignments[i])
	}
	return out, nil
}

// LookupPhrase returns every alignment whose phrase in the given
// language column matches exactly.
func (s *Store) LookupPhrase(ctx context.Context, lang int, phrase string) ([]store.Alignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Alignment
	for _, a := range s.alignments {
		if lang < len(a.Phrases) && a.Phrases[lang] == phrase {
			out = append(out, copyAlignment(a))
		}
	}
	return out, nil
}

// Count returns the number of stored alignments.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.alignments)), nil
}

func copyAlignment(a store.Alignment) store.Alignment {
	out := a
	out.Phrases = append([]string(nil), a.Phrases...)
	out.Probs = append([]float64(nil), a.Probs...)
	return out
}
