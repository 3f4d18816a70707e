package output

import (
	"bufio"
	"io"
	"strings"
)

// MosesWriter emits records in the Moses decoder's phrase table format:
// languages joined by " ||| ", all scores merged into one field with a
// fixed trailing constant.
type MosesWriter struct {
	w *bufio.Writer
}

// NewMoses returns a Moses-format writer on w.
func NewMoses(w io.Writer) *MosesWriter {
	return &MosesWriter{w: bufio.NewWriter(w)}
}

func (m *MosesWriter) Write(rec Record) error {
	var sb strings.Builder
	sb.WriteString(strings.Join(rec.Phrases, " ||| "))
	sb.WriteString(" |||")
	if _, ok := numericWeights(rec.LexWeights); ok {
		sb.WriteByte(' ')
		sb.WriteString(rec.LexWeights)
	}
	sb.WriteByte(' ')
	sb.WriteString(formatProbs(rec.Probs))
	sb.WriteString(" 2.718\n")
	_, err := m.w.WriteString(sb.String())
	return err
}

func (m *MosesWriter) Finalize() error {
	return m.w.Flush()
}
