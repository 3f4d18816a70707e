// Package phrasal extracts multilingual phrase-alignment tables from
// sentence-aligned parallel corpora by randomized subcorpus sampling,
// then attaches translation probabilities and optional lexical weights.
package phrasal

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/phrasal/pkg/phrasal/config"
	"github.com/cognicore/phrasal/pkg/phrasal/corpus"
	"github.com/cognicore/phrasal/pkg/phrasal/extract"
	"github.com/cognicore/phrasal/pkg/phrasal/lexical"
	"github.com/cognicore/phrasal/pkg/phrasal/output"
	"github.com/cognicore/phrasal/pkg/phrasal/prob"
	"github.com/cognicore/phrasal/pkg/phrasal/sample"
	"github.com/cognicore/phrasal/pkg/phrasal/store"
)

// Options configures an alignment run.
type Options struct {
	// Inputs are the parallel corpus files; "-" reads standard input.
	Inputs []string
	// Writer consumes the final records.
	Writer output.Writer
	// Store optionally persists the phrase table alongside the output.
	Store store.Store
	// Profile carries every behavioral option.
	Profile config.Profile
	// Rand drives all sampling; nil seeds from the clock.
	Rand *rand.Rand
	// Logger receives progress; nil uses slog.Default.
	Logger *slog.Logger
}

// Aligner runs the full pipeline: index the corpus, repeatedly sample
// subcorpora and extract alignments, weight them, then aggregate
// frequencies into translation probabilities.
type Aligner struct {
	opts   Options
	rng    *rand.Rand
	logger *slog.Logger
	runID  string
}

// NewAligner validates the profile and prepares a run.
func NewAligner(opts Options) (*Aligner, error) {
	if err := opts.Profile.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Inputs) == 0 {
		opts.Inputs = []string{"-"}
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := ulid.MustNew(ulid.Now(), ulid.Monotonic(crand.Reader, 0)).String()
	return &Aligner{
		opts:   opts,
		rng:    rng,
		logger: logger.With("run_id", runID),
		runID:  runID,
	}, nil
}

// Run executes the pipeline. Cancelling the context stops sampling at
// the next round boundary; alignments extracted so far still flow
// through aggregation, so an interrupted run produces a valid if
// statistically incomplete table.
func (a *Aligner) Run(ctx context.Context) error {
	p := a.opts.Profile

	reader, err := corpus.Open(ctx, a.opts.Inputs, p.TempDir)
	if err != nil {
		return err
	}
	defer reader.Close()
	a.logger.Info("input corpus indexed",
		"languages", reader.NumLang, "lines", reader.NumLines)

	minLang := p.MinLanguages
	if minLang == 0 {
		minLang = reader.NumLang
	}
	fields, err := config.ParseFields(p.DiscontiguousFields, reader.NumLang)
	if err != nil {
		return err
	}
	contiguous := make([]bool, reader.NumLang)
	for i := range contiguous {
		contiguous[i] = !fields[i+1]
	}
	maxSize := p.MaxSize
	if maxSize == 0 {
		maxSize = math.MaxInt
	}

	counts := extract.NewFreqStore()
	extractor := extract.New(extract.Config{
		MinLanguages: minLang,
		MinSize:      p.MinSize,
		MaxSize:      maxSize,
		IndexN:       p.IndexNgrams,
		UseDelimiter: p.Delimiter != "",
		Contiguous:   contiguous,
	}, counts)
	weighter := lexical.NewWeighter(p.LexWeights, counts, p.TempDir)

	writer := a.opts.Writer
	if a.opts.Store != nil {
		writer = store.NewSink(ctx, a.opts.Store, writer)
	}

	weighted, err := os.CreateTemp(p.TempDir, "phrasal-"+a.runID+"-*.al_lw")
	if err != nil {
		return err
	}
	defer func() {
		weighted.Close()
		os.Remove(weighted.Name())
	}()

	// Partition the corpus when it does not fit in memory at once. Each
	// partition gets an equal share of the timeout.
	// A negative timeout means unlimited; zero stops sampling before the
	// first round, leaving an empty but well-formed table.
	numParts := 1
	timeout := time.Duration(-1)
	if p.Timeout >= 0 {
		timeout = time.Duration(p.Timeout * float64(time.Second))
	}
	if p.MaxSentences > 0 {
		numParts = (reader.NumLines + p.MaxSentences - 1) / p.MaxSentences
		if timeout > 0 {
			timeout /= time.Duration(numParts)
		}
		a.logger.Info("split input corpus", "partitions", numParts)
	}

	lines := a.rng.Perm(reader.NumLines)
	for remaining := numParts; remaining >= 1; remaining-- {
		take := (len(lines) + remaining - 1) / remaining
		selection := lines[len(lines)-take:]
		lines = lines[:len(lines)-take]
		if err := a.runPartition(ctx, reader, selection, extractor, counts, weighter, weighted, timeout); err != nil {
			return err
		}
	}

	return prob.Emit(weighted, counts, writer, p.TempDir, a.logger)
}

// runPartition loads one subset of the corpus, samples it until a stop
// condition fires, and appends the weighted surface-form records.
func (a *Aligner) runPartition(ctx context.Context, reader *corpus.Reader, selection []int,
	extractor *extract.Extractor, counts *extract.FreqStore, weighter lexical.Weighter,
	weighted *os.File, timeout time.Duration) error {

	p := a.opts.Profile
	sub, err := reader.Load(selection, p.Delimiter, p.IndexNgrams)
	if err != nil {
		return err
	}

	raw, err := os.CreateTemp(p.TempDir, "phrasal-"+a.runID+"-*.al")
	if err != nil {
		return err
	}
	defer func() {
		raw.Close()
		os.Remove(raw.Name())
	}()
	rawBuf := bufio.NewWriter(raw)

	stats, err := sample.Run(ctx, a.rng, len(sub.Lines),
		sample.Config{MaxRate: p.NewAlignments, Timeout: timeout},
		counts.Total,
		func(lineIDs []int, weight int) error {
			return extractor.Align(sub, lineIDs, weight, rawBuf)
		},
		a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("partition aligned",
		"rounds", stats.Rounds, "alignments", counts.Total(),
		"interrupted", stats.Interrupted)

	if err := rawBuf.Flush(); err != nil {
		return err
	}
	if _, err := raw.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return weighter.Emit(sub, raw, weighted)
}

// Merge combines pre-existing alignment files into a single table,
// optionally persisting it like an alignment run.
func Merge(ctx context.Context, paths []string, writer output.Writer, st store.Store,
	tmpDir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if st != nil {
		writer = store.NewSink(ctx, st, writer)
	}
	return prob.Merge(paths, writer, tmpDir, logger)
}

// NewWriter builds the output writer for a (possibly abbreviated)
// format name. langSpec is the comma-separated language label list used
// by the html and tmx formats.
func NewWriter(format string, w io.Writer, encoding, langSpec string) (output.Writer, error) {
	resolved, err := config.ResolveFormat(format)
	if err != nil {
		return nil, err
	}
	var langs []string
	if langSpec != "" {
		langs = strings.Split(langSpec, ",")
	}
	switch resolved {
	case "plain":
		return output.NewPlain(w), nil
	case "moses":
		return output.NewMoses(w), nil
	case "html":
		return output.NewHTML(w, encoding, langs)
	case "tmx":
		return output.NewTMX(w, langs)
	}
	return nil, fmt.Errorf("unreachable format %q", resolved)
}
