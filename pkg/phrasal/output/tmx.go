package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TMXWriter emits one TMX 1.4 translation unit per alignment, with the
// frequency, probabilities, and lexical weights as properties and one
// variant per language. Non-ASCII content is escaped to numeric
// character references.
type TMXWriter struct {
	w     *bufio.Writer
	langs []string
}

// NewTMX writes the TMX header and returns the writer.
func NewTMX(w io.Writer, langs []string) (*TMXWriter, error) {
	t := &TMXWriter{w: bufio.NewWriter(w), langs: langs}
	_, err := fmt.Fprint(t.w, `<?xml version="1.0"?>
<tmx version="1.4">
<header creationtool="phrasal" creationtoolversion="1.0" datatype="plaintext"
 segtype="phrase" adminlang="en-us" srclang="*all*" o-tmf="none" />
<body>
`)
	return t, err
}

func (t *TMXWriter) Write(rec Record) error {
	var variants strings.Builder
	for i, phrase := range rec.Phrases {
		lang := fmt.Sprintf("_lang%d_", i+1)
		if i < len(t.langs) {
			lang = t.langs[i]
		}
		fmt.Fprintf(&variants, " <tuv xml:lang=\"%s\"><seg>%s</seg></tuv>\n",
			lang, asciiEscape(phrase))
	}
	_, err := fmt.Fprintf(t.w, "<tu>\n <prop type=\"freq\">%d</prop>\n"+
		" <prop type=\"probas\">%s</prop>\n"+
		" <prop type=\"lexWeights\">%s</prop>\n%s</tu>\n",
		rec.Freq, formatProbs(rec.Probs), rec.LexWeights, variants.String())
	return err
}

func (t *TMXWriter) Finalize() error {
	if _, err := t.w.WriteString("</body>\n</tmx>\n"); err != nil {
		return err
	}
	return t.w.Flush()
}

// xmlEscape escapes the XML special characters.
func xmlEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// asciiEscape escapes XML specials and replaces non-ASCII runes with
// numeric character references.
func asciiEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '&':
			sb.WriteString("&amp;")
		case r == '<':
			sb.WriteString("&lt;")
		case r == '>':
			sb.WriteString("&gt;")
		case r > 127:
			fmt.Fprintf(&sb, "&#%d;", r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
