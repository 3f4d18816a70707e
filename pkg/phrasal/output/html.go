package output

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
)

// HTMLWriter emits one XHTML table row per alignment. Cell background
// intensities encode the log-frequency ratio against the most frequent
// alignment and the geometric means of the probability and lexical
// weight vectors.
type HTMLWriter struct {
	w       *bufio.Writer
	counter int
	maxLog  float64 // ln of the first (highest) frequency
	started bool
}

// NewHTML writes the document header and returns the writer. langs
// provides the table column labels.
func NewHTML(w io.Writer, encoding string, langs []string) (*HTMLWriter, error) {
	h := &HTMLWriter{w: bufio.NewWriter(w), counter: 1}
	var cols strings.Builder
	for _, lang := range langs {
		fmt.Fprintf(&cols, " <th>%s</th>\n", xmlEscape(lang))
	}
	_, err := fmt.Fprintf(h.w, `<?xml version="1.0" encoding="%s"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN"
"http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
<meta http-equiv="content-type" content="text/html; charset=%s" />
<title>phrasal: output</title>
<style type="text/css">
 td { border: solid thin rgb(224,224,224); padding: 5px; text-align: center }
 td.n { font-family: monospace; text-align: right }
 th { background-color: rgb(240, 240, 240); border: thin outset }
</style>
</head>
<body>
<table cellspacing="0pt">
<tr>
 <th>No</th>
 <th>Freq.</th>
 <th>Translation<br/>probabilities</th>
 <th>Lexical<br/>weights</th>
%s</tr>
`, encoding, encoding, cols.String())
	return h, err
}

func (h *HTMLWriter) Write(rec Record) error {
	if !h.started {
		h.started = true
		h.maxLog = math.Log(float64(rec.Freq))
	}

	red := 0
	if h.maxLog > 0 {
		red = int(255 * (1 - math.Log(float64(rec.Freq))/h.maxLog))
	}
	green := int(255 * (1 - geoMean(rec.Probs)))

	blue := 256
	lexCell := rec.LexWeights
	if weights, ok := numericWeights(rec.LexWeights); ok {
		blue = 128 + int(128*(1-geoMean(weights)))
		parts := make([]string, len(weights))
		for i, lw := range weights {
			parts[i] = fmt.Sprintf("%.2f", lw)
		}
		lexCell = strings.Join(parts, "&nbsp;")
	}

	probParts := make([]string, len(rec.Probs))
	for i, p := range rec.Probs {
		probParts[i] = fmt.Sprintf("%.2f", p)
	}

	var cells strings.Builder
	for _, phrase := range rec.Phrases {
		fmt.Fprintf(&cells, " <td>%s</td>\n", xmlEscape(phrase))
	}

	_, err := fmt.Fprintf(h.w, `<tr>
 <td class="n">%d</td>
 <td class="n" style="background-color:rgb(255,%d,%d)">%d</td>
 <td class="n" style="background-color:rgb(%d,255,%d)">%s</td>
 <td class="n" style="background-color:rgb(%d,%d,255)">%s</td>
%s</tr>
`, h.counter, red, red, rec.Freq, green, green,
		strings.Join(probParts, "&nbsp;"), blue, blue, lexCell, cells.String())
	h.counter++
	return err
}

func (h *HTMLWriter) Finalize() error {
	if _, err := h.w.WriteString("</table>\n</body>\n</html>\n"); err != nil {
		return err
	}
	return h.w.Flush()
}

func geoMean(values []float64) float64 {
	if len(values) == 0 {
		return 1
	}
	product := 1.0
	for _, v := range values {
		product *= v
	}
	return math.Pow(product, 1/float64(len(values)))
}
