// Package prob turns accumulated alignment frequencies into conditional
// translation probabilities via a three-pass, disk-backed pipeline.
package prob

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"

	"github.com/cognicore/phrasal/pkg/phrasal/extract"
	"github.com/cognicore/phrasal/pkg/phrasal/output"
)

// Emit runs the aggregation passes over the weighted alignment file and
// sends final records to the writer in strictly descending frequency
// order, ties broken by original emission order.
//
// Pass 1 indexes record byte offsets by frequency (looked up in the
// store, which is then released). Pass 2 re-reads records in descending
// frequency order into a compressed stream with the frequency attached,
// accumulating per-language marginal phrase frequencies as it goes.
// Pass 3 re-reads the stream and computes each language column's
// conditional probability. No pass ever holds more than the distinct
// phrase hashes in memory.
//
// A writer error in pass 3 stops emission without failing the run:
// partial output on a closed consumer is acceptable.
func Emit(weighted *os.File, counts *extract.FreqStore, writer output.Writer,
	tmpDir string, logger *slog.Logger) error {

	// Pass 1: index by frequency.
	if _, err := weighted.Seek(0, io.SeekStart); err != nil {
		return err
	}
	offsetsByFreq := make(map[int64][]int64)
	numAlignments := 0
	var offset int64
	scanner := newLineScanner(weighted)
	for scanner.Scan() {
		line := scanner.Text()
		alignment := line[:strings.LastIndexByte(line, '\t')]
		freq := counts.Lookup(len(alignment), xxhash.Sum64String(alignment))
		offsetsByFreq[freq] = append(offsetsByFreq[freq], offset)
		offset += int64(len(line)) + 1
		numAlignments++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	counts.Release()

	logger.Info("aggregating", "alignments", numAlignments)
	if numAlignments == 0 {
		return writer.Finalize()
	}

	// Pass 2: dump records sorted by descending frequency into a
	// compressed stream, collecting marginal counts per language.
	tmp, err := os.CreateTemp(tmpDir, "phrasal-sorted-*.gz")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()
	zw, err := gzip.NewWriterLevel(tmp, gzip.BestSpeed)
	if err != nil {
		return err
	}

	freqs := make([]int64, 0, len(offsetsByFreq))
	for freq := range offsetsByFreq {
		freqs = append(freqs, freq)
	}
	sort.Slice(freqs, func(a, b int) bool { return freqs[a] > freqs[b] })

	var marginals []map[uint64]int64
	zbw := bufio.NewWriter(zw)
	reread := bufio.NewReader(weighted)
	for _, freq := range freqs {
		for _, off := range offsetsByFreq[freq] {
			if _, err := weighted.Seek(off, io.SeekStart); err != nil {
				return err
			}
			reread.Reset(weighted)
			line, err := reread.ReadString('\n')
			if err != nil && err != io.EOF {
				return err
			}
			line = strings.TrimSuffix(line, "\n")

			alignment := line[:strings.LastIndexByte(line, '\t')]
			phrases := strings.Split(alignment, "\t")
			if marginals == nil {
				marginals = make([]map[uint64]int64, len(phrases))
				for i := range marginals {
					marginals[i] = make(map[uint64]int64)
				}
			}
			for i, phrase := range phrases {
				marginals[i][xxhash.Sum64String(phrase)] += freq
			}

			zbw.WriteString(line)
			zbw.WriteByte('\t')
			zbw.WriteString(strconv.FormatInt(freq, 16))
			zbw.WriteByte('\n')
		}
		delete(offsetsByFreq, freq)
	}
	if err := zbw.Flush(); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	// Pass 3: compute conditional probabilities and emit.
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}
	zr, err := gzip.NewReader(tmp)
	if err != nil {
		return err
	}
	defer zr.Close()

	logger.Info("computing conditional probabilities")
	numLang := len(marginals)
	scanner = newLineScanner(zr)
	for scanner.Scan() {
		line := scanner.Text()
		freqSep := strings.LastIndexByte(line, '\t')
		lexSep := strings.LastIndexByte(line[:freqSep], '\t')
		freq, err := strconv.ParseInt(line[freqSep+1:], 16, 64)
		if err != nil {
			return err
		}
		phrases := strings.SplitN(line[:lexSep], "\t", numLang)
		probs := make([]float64, len(phrases))
		for i, phrase := range phrases {
			probs[i] = float64(freq) / float64(marginals[i][xxhash.Sum64String(phrase)])
		}
		rec := output.Record{
			Phrases:    phrases,
			LexWeights: line[lexSep+1 : freqSep],
			Probs:      probs,
			Freq:       freq,
		}
		if err := writer.Write(rec); err != nil {
			logger.Info("output consumer stopped, truncating", "error", err)
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return writer.Finalize()
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<22)
	return scanner
}
