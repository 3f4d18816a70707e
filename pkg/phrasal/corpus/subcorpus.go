package corpus

import (
	"bufio"
	"io"
	"sort"
	"strings"
)

// DelimiterID is the word id of the discontinuity delimiter after
// frequency reordering. Its frequency is defined as the highest real
// frequency plus one, so it always sorts first.
const DelimiterID int32 = 0

// Subcorpus is one loaded subset of the corpus: lines of word ids
// spanning all languages, plus the vocabulary built over exactly that
// subset. It is owned by a single sampling round group and discarded
// after extraction and weighting.
type Subcorpus struct {
	Lines [][]int32 // per line, word ids across all languages in order
	Words []string  // id -> surface form; index DelimiterID is the delimiter
	Lang  []int     // id -> 0-based language; the delimiter gets NumLang
	Freq  []int     // id -> occurrence count, non-increasing by id

	NumLang int
	indexN  int

	// N-gram tables for orders 2..indexN, built once per subcorpus.
	ngramWords [][][]int32 // [order-2][ngramID] -> constituent word ids
	ngramLines [][][]int32 // [order-2][lineID] -> sorted ngram ids
}

// IndexN reports the highest n-gram order indexed for this subcorpus.
func (s *Subcorpus) IndexN() int { return s.indexN }

// LineNGrams returns the sorted ids of order-n n-grams on a line.
func (s *Subcorpus) LineNGrams(n, lineID int) []int32 {
	return s.ngramLines[n-2][lineID]
}

// NGramWords returns the word ids making up an order-n n-gram.
func (s *Subcorpus) NGramWords(n int, id int32) []int32 {
	return s.ngramWords[n-2][id]
}

// Load materializes the given corpus lines as a Subcorpus. Line ids are
// read in ascending order to favor sequential disk access. Word ids are
// assigned on first sight per language, then reordered by descending
// frequency over the loaded subset; the delimiter token is appended
// before reordering. N-gram tables are built for orders 2..indexN.
func (r *Reader) Load(lineIDs []int, delimiter string, indexN int) (*Subcorpus, error) {
	selection := make([]int, len(lineIDs))
	copy(selection, lineIDs)
	sort.Ints(selection)

	sub := &Subcorpus{
		Lines:   make([][]int32, len(selection)),
		NumLang: r.NumLang,
		indexN:  indexN,
	}

	// Per-language id maps: the same surface form in two languages is
	// two distinct words.
	wordIDs := make([]map[string]int32, r.NumLang)
	for i := range wordIDs {
		wordIDs[i] = make(map[string]int32)
	}

	// Read files sequentially rather than in parallel: much kinder to
	// the disk, and the line layout does not care.
	langDone := 0
	for fileID, f := range r.files {
		br := bufio.NewReaderSize(f, 1<<16)
		for lineID, orig := range selection {
			if _, err := f.Seek(r.offsets[fileID][orig], io.SeekStart); err != nil {
				return nil, err
			}
			br.Reset(f)
			raw, err := br.ReadString('\n')
			if err != nil && err != io.EOF {
				return nil, err
			}
			raw = strings.TrimSuffix(raw, "\n")
			for col, sentence := range strings.Split(raw, "\t") {
				langID := langDone + col
				ids := wordIDs[langID]
				for _, word := range strings.Fields(sentence) {
					id, ok := ids[word]
					if !ok {
						id = int32(len(sub.Words))
						ids[word] = id
						sub.Words = append(sub.Words, word)
						sub.Lang = append(sub.Lang, langID)
					}
					sub.Lines[lineID] = append(sub.Lines[lineID], id)
				}
			}
		}
		langDone += r.cols[fileID]
	}

	sub.countAndReorder(delimiter)
	sub.buildNGrams()
	return sub, nil
}

// countAndReorder computes per-id frequencies over the loaded lines,
// appends the delimiter token, and reassigns ids so the most frequent
// word gets the smallest id. Ties keep their original id order, which
// makes the assignment deterministic. The monotone frequency layout is
// what lets the lexical weighter find its hapax cutoff by index.
func (s *Subcorpus) countAndReorder(delimiter string) {
	s.Freq = make([]int, len(s.Words))
	seen := make(map[int32]struct{})
	for _, line := range s.Lines {
		for k := range seen {
			delete(seen, k)
		}
		for _, id := range line {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				s.Freq[id]++
			}
		}
	}

	maxFreq := 0
	for _, f := range s.Freq {
		if f > maxFreq {
			maxFreq = f
		}
	}
	s.Words = append(s.Words, delimiter)
	s.Lang = append(s.Lang, s.NumLang)
	s.Freq = append(s.Freq, maxFreq+1)

	order := make([]int, len(s.Words))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.Freq[order[a]] > s.Freq[order[b]]
	})

	words := make([]string, len(order))
	langs := make([]int, len(order))
	freqs := make([]int, len(order))
	newPos := make([]int32, len(order))
	for newID, oldID := range order {
		words[newID] = s.Words[oldID]
		langs[newID] = s.Lang[oldID]
		freqs[newID] = s.Freq[oldID]
		newPos[oldID] = int32(newID)
	}
	s.Words, s.Lang, s.Freq = words, langs, freqs

	for _, line := range s.Lines {
		for i, id := range line {
			line[i] = newPos[id]
		}
	}
}

// buildNGrams stores per-line sets of n-gram ids for orders 2..indexN.
// Memory intensive, but far faster than re-deriving n-grams on every
// extraction round.
func (s *Subcorpus) buildNGrams() {
	orders := s.indexN - 1
	if orders <= 0 {
		return
	}
	ngramIDs := make([]map[string]int32, orders)
	s.ngramWords = make([][][]int32, orders)
	s.ngramLines = make([][][]int32, orders)
	for i := range ngramIDs {
		ngramIDs[i] = make(map[string]int32)
		s.ngramLines[i] = make([][]int32, len(s.Lines))
	}

	sentences := make([][]int32, s.NumLang)
	for lineID, line := range s.Lines {
		for i := range sentences {
			sentences[i] = sentences[i][:0]
		}
		for _, id := range line {
			lang := s.Lang[id]
			sentences[lang] = append(sentences[lang], id)
		}

		perLine := make([]map[int32]struct{}, orders)
		for i := range perLine {
			perLine[i] = make(map[int32]struct{})
		}
		for _, sent := range sentences {
			for n := 2; n <= s.indexN && n <= len(sent); n++ {
				ids := ngramIDs[n-2]
				for i := 0; i+n <= len(sent); i++ {
					gram := sent[i : i+n]
					key := ngramKey(gram)
					id, ok := ids[key]
					if !ok {
						id = int32(len(s.ngramWords[n-2]))
						ids[key] = id
						s.ngramWords[n-2] = append(s.ngramWords[n-2], append([]int32(nil), gram...))
					}
					perLine[n-2][id] = struct{}{}
				}
			}
		}
		for i, set := range perLine {
			grams := make([]int32, 0, len(set))
			for id := range set {
				grams = append(grams, id)
			}
			sort.Slice(grams, func(a, b int) bool { return grams[a] < grams[b] })
			s.ngramLines[i][lineID] = grams
		}
	}
}

// ngramKey packs a word-id sequence into a map key.
func ngramKey(ids []int32) string {
	buf := make([]byte, 0, 4*len(ids))
	for _, id := range ids {
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	}
	return string(buf)
}
