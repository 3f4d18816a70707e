package lexical

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/cognicore/phrasal/pkg/phrasal/corpus"
	"github.com/cognicore/phrasal/pkg/phrasal/extract"
)

// Placeholder marks the lexical weight field of an alignment whose
// weights were not computed.
const Placeholder = "-"

// Weighter converts one round's raw alignment records (hex word ids)
// into their surface form with a lexical weight field appended. The
// variant is selected once at construction; per-record branching on the
// weighting mode never happens.
type Weighter interface {
	Emit(sub *corpus.Subcorpus, raw io.Reader, weighted io.Writer) error
}

// NewWeighter returns the lexical weighter when requested, otherwise
// the placeholder variant. counts and tmpDir are only used by the
// lexical variant, which spills the frequency store to disk while the
// co-occurrence database is alive.
func NewWeighter(lexWeights bool, counts *extract.FreqStore, tmpDir string) Weighter {
	if lexWeights {
		return &lexicalWeighter{counts: counts, tmpDir: tmpDir}
	}
	return dummyWeighter{}
}

// dummyWeighter renders surface strings and appends the placeholder.
type dummyWeighter struct{}

func (dummyWeighter) Emit(sub *corpus.Subcorpus, raw io.Reader, weighted io.Writer) error {
	bw := bufio.NewWriter(weighted)
	scanner := newRecordScanner(raw)
	for scanner.Scan() {
		phrases, err := parseRecord(scanner.Text(), sub.NumLang)
		if err != nil {
			return err
		}
		for i, phrase := range phrases {
			if i > 0 {
				bw.WriteByte('\t')
			}
			writeSurface(bw, sub, phrase)
		}
		bw.WriteByte('\t')
		bw.WriteString(Placeholder)
		bw.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bw.Flush()
}

// lexicalWeighter computes per-phrase lexical weights from the word
// co-occurrence database.
type lexicalWeighter struct {
	counts *extract.FreqStore
	tmpDir string
}

func (lw *lexicalWeighter) Emit(sub *corpus.Subcorpus, raw io.Reader, weighted io.Writer) error {
	// Spill the frequency store while the co-occurrence database holds
	// the memory, and restore it afterwards.
	spillFile, err := os.CreateTemp(lw.tmpDir, "phrasal-dict-*.gz")
	if err != nil {
		return err
	}
	defer func() {
		spillFile.Close()
		os.Remove(spillFile.Name())
	}()
	zw, err := gzip.NewWriterLevel(spillFile, gzip.BestSpeed)
	if err != nil {
		return err
	}
	if err := lw.counts.Spill(zw); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	db := BuildCoocDB(sub)

	bw := bufio.NewWriter(weighted)
	scanner := newRecordScanner(raw)
	for scanner.Scan() {
		phrases, err := parseRecord(scanner.Text(), sub.NumLang)
		if err != nil {
			return err
		}
		weights := phraseWeights(sub, db, phrases)
		for i, phrase := range phrases {
			if i > 0 {
				bw.WriteByte('\t')
			}
			writeSurface(bw, sub, phrase)
		}
		bw.WriteByte('\t')
		for i, w := range weights {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(w, 'f', 6, 64))
		}
		bw.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if _, err := spillFile.Seek(0, io.SeekStart); err != nil {
		return err
	}
	zr, err := gzip.NewReader(spillFile)
	if err != nil {
		return err
	}
	defer zr.Close()
	return lw.counts.Restore(zr)
}

// phraseWeights computes one lexical weight per language: the product,
// over the phrase's words, of the highest joint co-occurrence with any
// word of any other language's phrase, divided by the word's own
// frequency. Delimiter ids are skipped.
func phraseWeights(sub *corpus.Subcorpus, db *CoocDB, phrases [][]int32) []float64 {
	// Strip delimiters once; every pair lookup below works on real words.
	stripped := make([][]int32, len(phrases))
	for i, phrase := range phrases {
		for _, w := range phrase {
			if w != corpus.DelimiterID {
				stripped[i] = append(stripped[i], w)
			}
		}
	}

	weights := make([]float64, len(stripped))
	for srcLang, source := range stripped {
		weight := 1.0
		for _, sw := range source {
			highest := int32(0)
			for tgtLang, target := range stripped {
				if tgtLang == srcLang {
					continue
				}
				for _, tw := range target {
					var c int32
					if srcLang < tgtLang {
						c = db.Get(sw, tw)
					} else {
						c = db.Get(tw, sw)
					}
					if c > highest {
						highest = c
					}
				}
			}
			weight *= float64(highest) / float64(sub.Freq[sw])
		}
		weights[srcLang] = weight
	}
	return weights
}

// parseRecord decodes one raw record: numLang tab-separated phrases of
// space-separated hex word ids.
func parseRecord(line string, numLang int) ([][]int32, error) {
	fields := strings.SplitN(line, "\t", numLang)
	phrases := make([][]int32, len(fields))
	for i, field := range fields {
		if field == "" {
			continue
		}
		for _, tok := range strings.Split(field, " ") {
			id, err := strconv.ParseInt(tok, 16, 32)
			if err != nil {
				return nil, fmt.Errorf("bad raw alignment record %q: %w", line, err)
			}
			phrases[i] = append(phrases[i], int32(id))
		}
	}
	return phrases, nil
}

func writeSurface(bw *bufio.Writer, sub *corpus.Subcorpus, phrase []int32) {
	for i, id := range phrase {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(sub.Words[id])
	}
}

func newRecordScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<22)
	return scanner
}
