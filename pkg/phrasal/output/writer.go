// Package output renders final alignment records in the supported
// formats: plain, moses, html, tmx.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Record is one final alignment: per-language phrases, the lexical
// weight field (space-joined floats, or the "-" placeholder when
// weighting was disabled), per-language translation probabilities, and
// the absolute frequency.
type Record struct {
	Phrases    []string
	LexWeights string
	Probs      []float64
	Freq       int64
}

// Writer consumes records in descending-frequency order. Finalize is
// called exactly once after the last record.
type Writer interface {
	Write(rec Record) error
	Finalize() error
}

// PlainWriter emits the alignment file format itself: tab-separated
// phrases, lexical weights, probabilities, and frequency.
type PlainWriter struct {
	w *bufio.Writer
}

// NewPlain returns a plain-format writer on w.
func NewPlain(w io.Writer) *PlainWriter {
	return &PlainWriter{w: bufio.NewWriter(w)}
}

func (p *PlainWriter) Write(rec Record) error {
	var sb strings.Builder
	for _, phrase := range rec.Phrases {
		sb.WriteString(phrase)
		sb.WriteByte('\t')
	}
	sb.WriteString(rec.LexWeights)
	sb.WriteByte('\t')
	sb.WriteString(formatProbs(rec.Probs))
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatInt(rec.Freq, 10))
	sb.WriteByte('\n')
	_, err := p.w.WriteString(sb.String())
	return err
}

func (p *PlainWriter) Finalize() error {
	return p.w.Flush()
}

func formatProbs(probs []float64) string {
	var sb strings.Builder
	for i, p := range probs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(p, 'f', 6, 64))
	}
	return sb.String()
}

// numericWeights reports whether the lexical weight field holds actual
// numbers rather than the placeholder.
func numericWeights(field string) ([]float64, bool) {
	parts := strings.Fields(field)
	if len(parts) == 0 {
		return nil, false
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
