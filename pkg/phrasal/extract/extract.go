package extract

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/cognicore/phrasal/pkg/phrasal/corpus"
)

// Config holds the filters every emitted alignment must satisfy at the
// moment of emission.
type Config struct {
	MinLanguages int
	MinSize      int
	MaxSize      int
	IndexN       int
	UseDelimiter bool
	Contiguous   []bool // per language; false allows discontiguous phrases
}

// Extractor turns one sampled subcorpus into candidate phrase
// alignments and accumulates their weighted frequencies.
type Extractor struct {
	cfg    Config
	counts *FreqStore
}

// New returns an extractor writing frequencies into counts.
func New(cfg Config, counts *FreqStore) *Extractor {
	return &Extractor{cfg: cfg, counts: counts}
}

// group collects the word ids occurring on exactly the same set of
// subcorpus lines.
type group struct {
	lines []int32
	words map[int32]struct{}
}

// Align extracts every candidate alignment from the given subcorpus
// lines with the given frequency weight. For each order n up to indexN,
// units (words, or precomputed n-grams resolved to their word ids) are
// mapped to the lines they occur on and inverted into co-occurrence
// groups; each group then yields, per line, a "perfect" candidate (the
// group's words) and a "context" candidate (the complement). Newly seen
// alignments are appended to raw in hex word-id form.
func (e *Extractor) Align(sub *corpus.Subcorpus, lineIDs []int, weight int, raw io.Writer) error {
	for n := 1; n <= e.cfg.IndexN; n++ {
		groups := make(map[string]*group)
		if n == 1 {
			occ := make(map[int32][]int32)
			for _, lineID := range lineIDs {
				for _, w := range sub.Lines[lineID] {
					v := occ[w]
					if len(v) == 0 || v[len(v)-1] != int32(lineID) {
						occ[w] = append(v, int32(lineID))
					}
				}
			}
			for w, lines := range occ {
				g := groupFor(groups, lines)
				g.words[w] = struct{}{}
			}
		} else {
			occ := make(map[int32][]int32)
			for _, lineID := range lineIDs {
				for _, id := range sub.LineNGrams(n, lineID) {
					occ[id] = append(occ[id], int32(lineID))
				}
			}
			for id, lines := range occ {
				g := groupFor(groups, lines)
				for _, w := range sub.NGramWords(n, id) {
					g.words[w] = struct{}{}
				}
			}
		}
		if err := e.emitGroups(sub, groups, weight, raw); err != nil {
			return err
		}
	}
	return nil
}

func groupFor(groups map[string]*group, lines []int32) *group {
	key := lineKey(lines)
	g, ok := groups[key]
	if !ok {
		g = &group{lines: lines, words: make(map[int32]struct{})}
		groups[key] = g
	}
	return g
}

func (e *Extractor) emitGroups(sub *corpus.Subcorpus, groups map[string]*group, weight int, raw io.Writer) error {
	minWords := e.cfg.MinLanguages + e.cfg.MinSize - 1
	for _, g := range groups {
		if len(g.words) < minWords {
			continue
		}
		if !e.spansLanguages(sub, g.words) {
			continue
		}
		for _, lineID := range g.lines {
			words := sub.Lines[lineID]
			perfect := make([][]int, sub.NumLang)
			context := make([][]int, sub.NumLang)
			for pos, w := range words {
				lang := sub.Lang[w]
				if _, ok := g.words[w]; ok {
					perfect[lang] = append(perfect[lang], pos)
				} else {
					context[lang] = append(context[lang], pos)
				}
			}
			for _, candidate := range [2][][]int{perfect, context} {
				if err := e.emitCandidate(sub, words, candidate, weight, raw); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// spansLanguages reports whether the word set covers at least the
// configured minimum number of distinct languages.
func (e *Extractor) spansLanguages(sub *corpus.Subcorpus, words map[int32]struct{}) bool {
	seen := make(map[int]struct{}, e.cfg.MinLanguages)
	for w := range words {
		seen[sub.Lang[w]] = struct{}{}
		if len(seen) == e.cfg.MinLanguages {
			return true
		}
	}
	return len(seen) >= e.cfg.MinLanguages
}

// emitCandidate applies the per-language contiguity and length filters,
// renders surviving candidates, and accumulates their frequency. The
// filters are never relaxed after this point.
func (e *Extractor) emitCandidate(sub *corpus.Subcorpus, lineWords []int32, candidate [][]int, weight int, raw io.Writer) error {
	surviving := 0
	for lang, phrase := range candidate {
		if e.cfg.Contiguous[lang] && len(phrase) > 0 &&
			phrase[len(phrase)-1]-phrase[0] != len(phrase)-1 {
			candidate[lang] = nil
		} else if len(phrase) < e.cfg.MinSize || len(phrase) > e.cfg.MaxSize {
			candidate[lang] = nil
		}
		if len(candidate[lang]) > 0 {
			surviving++
		}
	}
	if surviving < e.cfg.MinLanguages {
		return nil
	}

	idPhrases := make([][]int32, len(candidate))
	for lang, phrase := range candidate {
		prev := -1
		for _, pos := range phrase {
			if e.cfg.UseDelimiter && prev != -1 && pos != prev+1 {
				idPhrases[lang] = append(idPhrases[lang], corpus.DelimiterID)
			}
			idPhrases[lang] = append(idPhrases[lang], lineWords[pos])
			prev = pos
		}
	}

	var sb strings.Builder
	for lang, phrase := range idPhrases {
		if lang > 0 {
			sb.WriteByte('\t')
		}
		for i, id := range phrase {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(sub.Words[id])
		}
	}
	rendered := sb.String()

	if e.counts.Add(len(rendered), xxhash.Sum64String(rendered), int64(weight)) {
		var hb strings.Builder
		for lang, phrase := range idPhrases {
			if lang > 0 {
				hb.WriteByte('\t')
			}
			for i, id := range phrase {
				if i > 0 {
					hb.WriteByte(' ')
				}
				hb.WriteString(strconv.FormatInt(int64(id), 16))
			}
		}
		if _, err := fmt.Fprintln(raw, hb.String()); err != nil {
			return err
		}
	}
	return nil
}

// lineKey packs an ordered line-id tuple into a map key.
func lineKey(lines []int32) string {
	buf := make([]byte, 0, 4*len(lines))
	for _, id := range lines {
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	}
	return string(buf)
}
