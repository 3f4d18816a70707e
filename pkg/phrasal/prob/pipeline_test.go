package prob

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/cognicore/phrasal/pkg/phrasal/extract"
	"github.com/cognicore/phrasal/pkg/phrasal/output"
)

type captureWriter struct {
	records   []output.Record
	finalized bool
	failAfter int // fail the Nth write when > 0
}

func (w *captureWriter) Write(rec output.Record) error {
	if w.failAfter > 0 && len(w.records)+1 >= w.failAfter {
		return errors.New("consumer gone")
	}
	w.records = append(w.records, rec)
	return nil
}

func (w *captureWriter) Finalize() error {
	w.finalized = true
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// weightedFile writes raw weighted records ("phrases \t lexWeights") and
// registers their frequencies in a fresh store.
func weightedFile(t *testing.T, lines []string, freqs []int64) (*os.File, *extract.FreqStore) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "weighted-*.al")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })

	counts := extract.NewFreqStore()
	for i, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatal(err)
		}
		alignment := line[:len(line)-2] // strip "\t-"
		counts.Add(len(alignment), xxhash.Sum64String(alignment), freqs[i])
	}
	return f, counts
}

func TestEmitOrderAndProbabilities(t *testing.T) {
	f, counts := weightedFile(t,
		[]string{"a\tx\t-", "a\ty\t-", "b\tx\t-"},
		[]int64{3, 1, 2})

	w := &captureWriter{}
	if err := Emit(f, counts, w, t.TempDir(), discard()); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !w.finalized {
		t.Error("writer not finalized")
	}
	if len(w.records) != 3 {
		t.Fatalf("got %d records, want 3", len(w.records))
	}

	// Descending frequency order.
	wantFreqs := []int64{3, 2, 1}
	for i, rec := range w.records {
		if rec.Freq != wantFreqs[i] {
			t.Errorf("record %d freq = %d, want %d", i, rec.Freq, wantFreqs[i])
		}
		if rec.LexWeights != "-" {
			t.Errorf("record %d lex weights = %q", i, rec.LexWeights)
		}
	}

	// Conditional on each side: marginal(a)=4, marginal(b)=2,
	// marginal(x)=5, marginal(y)=1.
	checks := []struct {
		phrases []string
		probs   []float64
	}{
		{[]string{"a", "x"}, []float64{3.0 / 4, 3.0 / 5}},
		{[]string{"b", "x"}, []float64{1.0, 2.0 / 5}},
		{[]string{"a", "y"}, []float64{1.0 / 4, 1.0}},
	}
	for i, c := range checks {
		rec := w.records[i]
		for j := range c.phrases {
			if rec.Phrases[j] != c.phrases[j] {
				t.Errorf("record %d phrases = %v, want %v", i, rec.Phrases, c.phrases)
				break
			}
		}
		for j := range c.probs {
			if rec.Probs[j] != c.probs[j] {
				t.Errorf("record %d probs = %v, want %v", i, rec.Probs, c.probs)
				break
			}
		}
	}
}

func TestEmitEmpty(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "weighted-*.al")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := &captureWriter{}
	if err := Emit(f, extract.NewFreqStore(), w, t.TempDir(), discard()); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !w.finalized {
		t.Error("empty input must still finalize the writer")
	}
	if len(w.records) != 0 {
		t.Errorf("got %d records, want 0", len(w.records))
	}
}

func TestEmitWriterErrorTruncates(t *testing.T) {
	f, counts := weightedFile(t,
		[]string{"a\tx\t-", "b\ty\t-"},
		[]int64{2, 1})

	w := &captureWriter{failAfter: 2}
	if err := Emit(f, counts, w, t.TempDir(), discard()); err != nil {
		t.Fatalf("a stopped consumer must not fail the run, got %v", err)
	}
	if len(w.records) != 1 {
		t.Errorf("got %d records before the failure, want 1", len(w.records))
	}
}

func TestEmitReconstructsMarginals(t *testing.T) {
	// Sanity over several alignments sharing phrases: summing freq/prob
	// per distinct source phrase must recover that phrase's marginal.
	f, counts := weightedFile(t,
		[]string{"a\tx\t-", "a\ty\t-", "a\tz\t-", "b\tz\t-"},
		[]int64{5, 3, 2, 2})

	w := &captureWriter{}
	if err := Emit(f, counts, w, filepath.Join(t.TempDir()), discard()); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	marginal := make(map[string]float64)
	for _, rec := range w.records {
		p := rec.Probs[0]
		if p <= 0 || p > 1 {
			t.Fatalf("probability %v out of range", p)
		}
		marginal[rec.Phrases[0]] = float64(rec.Freq) / p
	}
	if got := marginal["a"]; got != 10 {
		t.Errorf("reconstructed marginal(a) = %v, want 10", got)
	}
	if got := marginal["b"]; got != 2 {
		t.Errorf("reconstructed marginal(b) = %v, want 2", got)
	}
}
