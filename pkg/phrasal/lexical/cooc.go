// Package lexical computes word co-occurrence statistics and per-phrase
// lexical weights.
package lexical

import (
	"sort"

	"github.com/cognicore/phrasal/pkg/phrasal/corpus"
)

// CoocDB stores word co-occurrence counts compactly: for each source
// word, a sorted array of target word ids and a parallel array of joint
// frequencies. A lookup is one random access plus a binary search.
// Hapax words are excluded; their joint count with anything is 1 by
// definition, so storing them would only waste memory.
type CoocDB struct {
	pairs      [][]int32
	freqs      [][]int32
	firstHapax int32
}

// FirstHapax returns the smallest word id with frequency 1 (or the
// vocabulary size if there is none). Valid because ids are assigned in
// descending frequency order.
func (db *CoocDB) FirstHapax() int32 { return db.firstHapax }

// BuildCoocDB indexes joint occurrence counts over the subcorpus, one
// source language at a time, excluding the final language. Lines are
// first reduced to their unique non-hapax words; each source language's
// words are then removed in turn and counted against the remainder, so
// every ordered language pair is covered exactly once.
func BuildCoocDB(sub *corpus.Subcorpus) *CoocDB {
	fh := int32(sort.Search(len(sub.Freq), func(i int) bool { return sub.Freq[i] < 2 }))
	db := &CoocDB{
		pairs:      make([][]int32, fh),
		freqs:      make([][]int32, fh),
		firstHapax: fh,
	}

	lines := make([][]int32, len(sub.Lines))
	seen := make(map[int32]struct{})
	for i, line := range sub.Lines {
		for k := range seen {
			delete(seen, k)
		}
		for _, w := range line {
			if w < fh {
				if _, ok := seen[w]; !ok {
					seen[w] = struct{}{}
					lines[i] = append(lines[i], w)
				}
			}
		}
	}

	for srcLang := 0; srcLang < sub.NumLang-1; srcLang++ {
		sourceAp := make(map[int32][]int32)
		for lineID, line := range lines {
			kept := line[:0]
			for _, w := range line {
				if sub.Lang[w] == srcLang {
					sourceAp[w] = append(sourceAp[w], int32(lineID))
				} else {
					kept = append(kept, w)
				}
			}
			lines[lineID] = kept
		}
		cooc := make(map[int32]int32)
		for sw, lineList := range sourceAp {
			for k := range cooc {
				delete(cooc, k)
			}
			for _, lineID := range lineList {
				for _, tw := range lines[lineID] {
					cooc[tw]++
				}
			}
			if len(cooc) > 0 {
				db.add(sw, cooc)
			}
		}
	}
	return db
}

func (db *CoocDB) add(sw int32, cooc map[int32]int32) {
	targets := make([]int32, 0, len(cooc))
	for tw := range cooc {
		targets = append(targets, tw)
	}
	sort.Slice(targets, func(a, b int) bool { return targets[a] < targets[b] })
	freqs := make([]int32, len(targets))
	for i, tw := range targets {
		freqs[i] = cooc[tw]
	}
	db.pairs[sw] = targets
	db.freqs[sw] = freqs
}

// Get returns the joint occurrence count of an ordered source/target
// pair. Pairs never indexed (either word a hapax, or the pair never on
// a common line) default to 1, the hapax contribution.
func (db *CoocDB) Get(sw, tw int32) int32 {
	if sw >= db.firstHapax || tw >= db.firstHapax {
		return 1
	}
	targets := db.pairs[sw]
	i := sort.Search(len(targets), func(i int) bool { return targets[i] >= tw })
	if i == len(targets) || targets[i] != tw {
		return 1
	}
	return db.freqs[sw][i]
}
