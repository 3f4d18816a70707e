package corpus

import (
	"context"
	"testing"
)

func loadAll(t *testing.T, content, delimiter string, indexN int) *Subcorpus {
	t.Helper()
	path := writeFile(t, "corpus.txt", content)
	r, err := Open(context.Background(), []string{path}, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	all := make([]int, r.NumLines)
	for i := range all {
		all[i] = i
	}
	sub, err := r.Load(all, delimiter, indexN)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return sub
}

func TestFrequencyOrdering(t *testing.T) {
	sub := loadAll(t, "a b\tx\na c\tx\na\ty\n", "|", 1)

	for i := 1; i < len(sub.Freq); i++ {
		if sub.Freq[i] > sub.Freq[i-1] {
			t.Fatalf("frequencies not non-increasing at id %d: %v", i, sub.Freq)
		}
	}

	// The delimiter outranks everything: max real frequency + 1.
	if sub.Words[DelimiterID] != "|" {
		t.Errorf("id 0 should be the delimiter, got %q", sub.Words[DelimiterID])
	}
	if sub.Lang[DelimiterID] != sub.NumLang {
		t.Errorf("delimiter language = %d, want %d", sub.Lang[DelimiterID], sub.NumLang)
	}
	if sub.Freq[DelimiterID] != 4 {
		t.Errorf("delimiter frequency = %d, want max real + 1 = 4", sub.Freq[DelimiterID])
	}
}

func TestSameSurfaceDistinctLanguages(t *testing.T) {
	sub := loadAll(t, "la\tla\n", "", 1)

	// "la" in two languages must be two distinct word ids.
	ids := make(map[int]bool)
	for _, line := range sub.Lines {
		for _, id := range line {
			ids[int(id)] = true
		}
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 distinct ids, got %v", ids)
	}
}

func TestLineFrequenciesCountLinesNotTokens(t *testing.T) {
	// "a" twice on one line still counts once for that line.
	sub := loadAll(t, "a a\tx\nb\ty\n", "", 1)
	for id, word := range sub.Words {
		if word == "a" && sub.Freq[id] != 1 {
			t.Errorf("freq(a) = %d, want 1", sub.Freq[id])
		}
	}
}

func TestNGramTables(t *testing.T) {
	sub := loadAll(t, "a b c\tx y\n", "", 3)

	// Order 2: "a b", "b c" in language 0 and "x y" in language 1.
	grams := sub.LineNGrams(2, 0)
	if len(grams) != 3 {
		t.Fatalf("expected 3 bigrams, got %d", len(grams))
	}
	for _, id := range grams {
		words := sub.NGramWords(2, id)
		if len(words) != 2 {
			t.Errorf("bigram %d has %d words", id, len(words))
		}
		if sub.Lang[words[0]] != sub.Lang[words[1]] {
			t.Errorf("bigram %d spans languages", id)
		}
	}

	// Order 3: only "a b c".
	grams = sub.LineNGrams(3, 0)
	if len(grams) != 1 {
		t.Fatalf("expected 1 trigram, got %d", len(grams))
	}
	if words := sub.NGramWords(3, grams[0]); len(words) != 3 {
		t.Errorf("trigram has %d words, want 3", len(words))
	}
}
