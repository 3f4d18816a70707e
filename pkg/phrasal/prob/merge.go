package prob

import (
	"compress/bzip2"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"

	"github.com/cognicore/phrasal/pkg/phrasal/extract"
	"github.com/cognicore/phrasal/pkg/phrasal/output"
)

// Merge combines pre-existing alignment files into one table. Records
// with the same alignment hash have their frequencies summed; the first
// file's lexical weights win on collision. Alignment text is spooled to
// a sequential temp file, only hashes and frequencies stay in memory,
// and the merged set then runs through the same aggregation passes as
// alignment mode, so probabilities are recomputed over the union.
func Merge(paths []string, writer output.Writer, tmpDir string, logger *slog.Logger) error {
	counts := extract.NewFreqStore()
	weighted, err := os.CreateTemp(tmpDir, "phrasal-merge-*.al")
	if err != nil {
		return err
	}
	defer func() {
		weighted.Close()
		os.Remove(weighted.Name())
	}()

	for _, path := range paths {
		if err := mergeFile(path, counts, weighted); err != nil {
			return err
		}
	}
	return Emit(weighted, counts, writer, tmpDir, logger)
}

func mergeFile(path string, counts *extract.FreqStore, weighted *os.File) error {
	rc, err := openSequential(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	scanner := newLineScanner(rc)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		// <phrases> \t <lexWeights> \t <probs> \t <freq>
		freqSep := strings.LastIndexByte(line, '\t')
		probSep := strings.LastIndexByte(line[:freqSep], '\t')
		lexSep := strings.LastIndexByte(line[:probSep], '\t')
		freq, err := strconv.ParseInt(line[freqSep+1:], 10, 64)
		if err != nil {
			return err
		}
		alignment := line[:lexSep]
		if counts.Add(len(alignment), xxhash.Sum64String(alignment), freq) {
			if _, err := weighted.WriteString(line[:probSep] + "\n"); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// openSequential opens an alignment file for one forward read,
// decompressing by filename suffix; "-" reads standard input.
func openSequential(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &seqReader{r: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".bz2"):
		return &seqReader{r: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	}
	return f, nil
}

type seqReader struct {
	r       io.Reader
	closers []io.Closer
}

func (s *seqReader) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *seqReader) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
