// Package store persists final phrase tables for later querying.
package store

import (
	"context"

	"github.com/cognicore/phrasal/pkg/phrasal/output"
)

// Alignment is one stored phrase-table entry. Rank is the 1-based
// position in descending-frequency output order.
type Alignment struct {
	Rank       int64
	Phrases    []string
	LexWeights string
	Probs      []float64
	Freq       int64
}

// Store is the interface for persisting and querying phrase tables.
type Store interface {
	Close() error

	Put(ctx context.Context, a Alignment) error
	Top(ctx context.Context, limit int) ([]Alignment, error)
	LookupPhrase(ctx context.Context, lang int, phrase string) ([]Alignment, error)
	Count(ctx context.Context) (int64, error)
}

// Sink tees final records into a Store while forwarding them to the
// wrapped output writer, assigning ranks in emission order.
type Sink struct {
	ctx  context.Context
	st   Store
	next output.Writer
	rank int64
}

// NewSink wraps next so every record is also recorded in st.
func NewSink(ctx context.Context, st Store, next output.Writer) *Sink {
	return &Sink{ctx: ctx, st: st, next: next}
}

// Write implements output.Writer.
func (s *Sink) Write(rec output.Record) error {
	s.rank++
	a := Alignment{
		Rank:       s.rank,
		Phrases:    rec.Phrases,
		LexWeights: rec.LexWeights,
		Probs:      rec.Probs,
		Freq:       rec.Freq,
	}
	if err := s.st.Put(s.ctx, a); err != nil {
		return err
	}
	return s.next.Write(rec)
}

// Finalize implements output.Writer.
func (s *Sink) Finalize() error {
	return s.next.Finalize()
}
