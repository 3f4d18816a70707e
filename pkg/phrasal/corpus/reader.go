// Package corpus provides random access to sentence-aligned parallel
// corpora and builds the per-round subcorpus vocabulary.
package corpus

import (
	"bufio"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/phrasal/pkg/phrasal/internalerr"
)

// Reader indexes a set of parallel input files by line-start offset so
// arbitrary line subsets can be loaded without re-reading from the start.
type Reader struct {
	files   []*os.File
	offsets [][]int64 // per file, byte offset of each line start
	cols    []int     // per file, tab-column count
	spooled []string  // temp files to remove on Close

	NumLines int
	NumLang  int
	tmpDir   string
}

// Open prepares every input source for random access. Compressed inputs
// (.gz, .bz2) and standard input ("-") are spooled decompressed into the
// temp directory first, since offsets only make sense on plain bytes.
// The per-file offset scans run concurrently.
func Open(ctx context.Context, paths []string, tmpDir string) (*Reader, error) {
	r := &Reader{
		files:   make([]*os.File, len(paths)),
		offsets: make([][]int64, len(paths)),
		cols:    make([]int, len(paths)),
		tmpDir:  tmpDir,
	}
	for i, path := range paths {
		f, spooledPath, err := openPlain(path, tmpDir)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.files[i] = f
		if spooledPath != "" {
			r.spooled = append(r.spooled, spooledPath)
		}
	}

	g, _ := errgroup.WithContext(ctx)
	for i := range r.files {
		i := i
		g.Go(func() error {
			offsets, cols, err := scanOffsets(r.files[i], paths[i])
			if err != nil {
				return err
			}
			r.offsets[i] = offsets
			r.cols[i] = cols
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.Close()
		return nil, err
	}

	for i, offsets := range r.offsets {
		if i == 0 {
			r.NumLines = len(offsets)
		} else if len(offsets) != r.NumLines {
			r.Close()
			return nil, fmt.Errorf("%w: %s has %d lines, expected %d",
				internalerr.ErrBadFormat, paths[i], len(offsets), r.NumLines)
		}
		r.NumLang += r.cols[i]
	}
	return r, nil
}

// Close releases the underlying files and removes spooled copies.
func (r *Reader) Close() error {
	var firstErr error
	for _, f := range r.files {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, path := range r.spooled {
		os.Remove(path)
	}
	return firstErr
}

// openPlain opens path for seekable reading, decompressing by filename
// suffix. The second return value names the spool file if one was made.
func openPlain(path, tmpDir string) (*os.File, string, error) {
	if path == "-" {
		return spool(os.Stdin, tmpDir)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		defer f.Close()
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", path, err)
		}
		defer zr.Close()
		return spool(zr, tmpDir)
	case strings.HasSuffix(path, ".bz2"):
		defer f.Close()
		return spool(bzip2.NewReader(f), tmpDir)
	}
	return f, "", nil
}

func spool(src io.Reader, tmpDir string) (*os.File, string, error) {
	tmp, err := os.CreateTemp(tmpDir, "phrasal-input-*")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, "", err
	}
	return tmp, tmp.Name(), nil
}

// scanOffsets records every line-start offset and checks the tab-column
// count stays constant throughout the file.
func scanOffsets(f *os.File, name string) ([]int64, int, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, 0, err
	}
	var offsets []int64
	cols := -1
	var offset int64
	br := bufio.NewReaderSize(f, 1<<16)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			fl := strings.Count(line, "\t") + 1
			if cols == -1 {
				cols = fl
			} else if fl != cols {
				return nil, 0, fmt.Errorf("%w: %s line %d has %d columns, expected %d",
					internalerr.ErrBadFormat, name, len(offsets)+1, fl, cols)
			}
			offsets = append(offsets, offset)
			offset += int64(len(line))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	if cols == -1 {
		return nil, 0, fmt.Errorf("%w: %s is empty", internalerr.ErrBadFormat, name)
	}
	return offsets, cols, nil
}
