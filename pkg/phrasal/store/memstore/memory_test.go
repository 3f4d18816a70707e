package memstore

import (
	"context"
	"testing"

	"github.com/cognicore/phrasal/pkg/phrasal/store"
)

func TestPutTopLookup(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	for i, a := range []store.Alignment{
		{Rank: 1, Phrases: []string{"le", "the"}, LexWeights: "-", Probs: []float64{1, 1}, Freq: 4},
		{Rank: 2, Phrases: []string{"le chat", "the cat"}, LexWeights: "-", Probs: []float64{0.5, 0.5}, Freq: 2},
		{Rank: 3, Phrases: []string{"chat", "cat"}, LexWeights: "-", Probs: []float64{0.5, 0.5}, Freq: 2},
	} {
		if err := s.Put(ctx, a); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	top, err := s.Top(ctx, 2)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 2 || top[0].Rank != 1 || top[1].Rank != 2 {
		t.Errorf("Top(2) = %+v", top)
	}

	hits, err := s.LookupPhrase(ctx, 1, "the cat")
	if err != nil {
		t.Fatalf("LookupPhrase: %v", err)
	}
	if len(hits) != 1 || hits[0].Rank != 2 {
		t.Errorf("LookupPhrase = %+v", hits)
	}

	// Lookup in the other language column must not match.
	hits, err = s.LookupPhrase(ctx, 0, "the cat")
	if err != nil {
		t.Fatalf("LookupPhrase: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("cross-column lookup matched: %+v", hits)
	}
}

func TestPutCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	phrases := []string{"a", "x"}
	if err := s.Put(ctx, store.Alignment{Rank: 1, Phrases: phrases, Probs: []float64{1, 1}, Freq: 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	phrases[0] = "mutated"

	top, err := s.Top(ctx, 1)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if top[0].Phrases[0] != "a" {
		t.Error("stored alignment aliases caller memory")
	}
}
