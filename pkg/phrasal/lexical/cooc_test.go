package lexical

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/phrasal/pkg/phrasal/corpus"
)

func loadCorpus(t *testing.T, content string) *corpus.Subcorpus {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := corpus.Open(context.Background(), []string{path}, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	all := make([]int, r.NumLines)
	for i := range all {
		all[i] = i
	}
	sub, err := r.Load(all, "", 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return sub
}

func wordID(t *testing.T, sub *corpus.Subcorpus, word string, lang int) int32 {
	t.Helper()
	for id, w := range sub.Words {
		if w == word && sub.Lang[id] == lang {
			return int32(id)
		}
	}
	t.Fatalf("word %q not in vocabulary", word)
	return -1
}

func TestBuildCoocDB(t *testing.T) {
	sub := loadCorpus(t, "a b\tx\na c\tx\nd\ty\n")
	db := BuildCoocDB(sub)

	a := wordID(t, sub, "a", 0)
	x := wordID(t, sub, "x", 1)
	b := wordID(t, sub, "b", 0)

	// a and x share two lines.
	if got := db.Get(a, x); got != 2 {
		t.Errorf("Get(a, x) = %d, want 2", got)
	}
	// b is a hapax: its joint count with anything is the default 1.
	if got := db.Get(a, b); got != 1 {
		t.Errorf("Get(a, b) = %d, want 1", got)
	}
	if got := db.Get(b, x); got != 1 {
		t.Errorf("Get(b, x) = %d, want 1", got)
	}
	// Lookups are ordered: x was never indexed as a source word.
	if got := db.Get(x, a); got != 1 {
		t.Errorf("Get(x, a) = %d, want 1", got)
	}

	if db.FirstHapax() != 3 {
		t.Errorf("FirstHapax = %d, want 3 (delimiter, a, x)", db.FirstHapax())
	}
}

func TestPhraseWeightsIdenticalLines(t *testing.T) {
	// On a corpus of identical lines every word co-occurs with its
	// counterpart exactly as often as it occurs at all, so both lexical
	// weights are 1.
	sub := loadCorpus(t, "le chat\tthe cat\nle chat\tthe cat\nle chat\tthe cat\n")
	db := BuildCoocDB(sub)

	phrases := [][]int32{
		{wordID(t, sub, "le", 0), wordID(t, sub, "chat", 0)},
		{wordID(t, sub, "the", 1), wordID(t, sub, "cat", 1)},
	}
	weights := phraseWeights(sub, db, phrases)
	if len(weights) != 2 {
		t.Fatalf("got %d weights, want 2", len(weights))
	}
	for lang, w := range weights {
		if w != 1.0 {
			t.Errorf("weight[%d] = %v, want 1.0", lang, w)
		}
	}
}

func TestPhraseWeightsSkipDelimiter(t *testing.T) {
	sub := loadCorpus(t, "le chat\tthe cat\nle chat\tthe cat\n")
	db := BuildCoocDB(sub)

	with := phraseWeights(sub, db, [][]int32{
		{wordID(t, sub, "le", 0), corpus.DelimiterID, wordID(t, sub, "chat", 0)},
		{wordID(t, sub, "the", 1)},
	})
	without := phraseWeights(sub, db, [][]int32{
		{wordID(t, sub, "le", 0), wordID(t, sub, "chat", 0)},
		{wordID(t, sub, "the", 1)},
	})
	if with[0] != without[0] || with[1] != without[1] {
		t.Errorf("delimiter changed the weights: %v vs %v", with, without)
	}
}
