package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/cognicore/phrasal/pkg/phrasal/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenCountsLinesAndLanguages(t *testing.T) {
	bi := writeFile(t, "bi.txt", "le chat\tthe cat\nle chien\tthe dog\n")
	mono := writeFile(t, "mono.txt", "el gato\nel perro\n")

	r, err := Open(context.Background(), []string{bi, mono}, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.NumLines != 2 {
		t.Errorf("NumLines = %d, want 2", r.NumLines)
	}
	if r.NumLang != 3 {
		t.Errorf("NumLang = %d, want 3", r.NumLang)
	}
}

func TestOpenInconsistentColumns(t *testing.T) {
	bad := writeFile(t, "bad.txt", "a\tb\na\tb\tc\n")
	_, err := Open(context.Background(), []string{bad}, "")
	if !errors.Is(err, internalerr.ErrBadFormat) {
		t.Errorf("expected ErrBadFormat, got %v", err)
	}
}

func TestOpenMismatchedLineCounts(t *testing.T) {
	one := writeFile(t, "one.txt", "a\nb\n")
	two := writeFile(t, "two.txt", "x\n")
	_, err := Open(context.Background(), []string{one, two}, "")
	if !errors.Is(err, internalerr.ErrBadFormat) {
		t.Errorf("expected ErrBadFormat, got %v", err)
	}
}

func TestOpenGzipInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte("le chat\tthe cat\nle chien\tthe dog\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := Open(context.Background(), []string{path}, t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.NumLines != 2 || r.NumLang != 2 {
		t.Errorf("got %d lines, %d languages; want 2, 2", r.NumLines, r.NumLang)
	}
}

func TestLoadSubset(t *testing.T) {
	path := writeFile(t, "corpus.txt", "a b\tx\nc\ty\na b\tx\n")
	r, err := Open(context.Background(), []string{path}, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	sub, err := r.Load([]int{2, 0}, "", 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sub.Lines) != 2 {
		t.Fatalf("loaded %d lines, want 2", len(sub.Lines))
	}
	// Only words from lines 0 and 2 plus the delimiter: a, b, x.
	if len(sub.Words) != 4 {
		t.Errorf("vocabulary size = %d, want 4: %v", len(sub.Words), sub.Words)
	}
	for _, line := range sub.Lines {
		if len(line) != 3 {
			t.Errorf("line has %d words, want 3", len(line))
		}
	}
}
