package overlay

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"

	"github.com/tsawler/mysouku/internal/filters"
	"github.com/tsawler/mysouku/internal/pdfwrite"
)

// helveticaWidths holds advance widths of printable ASCII (32..126) in
// thousandths of an em.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278, // space../
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, // 0..9
	278, 278, 584, 584, 584, 556, 1015, // :..@
	667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, // A..M
	722, 778, 667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, // N..Z
	278, 278, 278, 469, 556, 333, // [..`
	556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, // a..m
	556, 556, 556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, // n..z
	334, 260, 334, 584, // {..~
}

// Helvetica is the standard-14 Helvetica font with WinAnsi encoding. It is
// never embedded.
type Helvetica struct{}

// NewHelvetica returns the Helvetica font.
func NewHelvetica() *Helvetica {
	return &Helvetica{}
}

// BaseName implements Font.
func (h *Helvetica) BaseName() string {
	return "Helvetica"
}

// Covers implements Font.
func (h *Helvetica) Covers(s string) bool {
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

// Encode implements Font. Runes outside Windows-1252 are dropped.
func (h *Helvetica) Encode(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b = append(b, c)
		}
	}
	return filters.ASCIIHexEncode(b)
}

// Width implements Font.
func (h *Helvetica) Width(s string, size float64) float64 {
	total := 0
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			continue
		}
		if c >= 32 && c <= 126 {
			total += helveticaWidths[c-32]
		} else {
			total += 556
		}
	}
	return float64(total) * size / 1000
}

// Reduce returns s restricted to the characters Helvetica can show, with
// runs of whitespace collapsed.
func (h *Helvetica) Reduce(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			sb.WriteRune(' ')
			continue
		}
		if _, ok := charmap.Windows1252.EncodeRune(r); ok && unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func (h *Helvetica) objectCount() int {
	return 1
}

func (h *Helvetica) objects(first int) ([]pdfwrite.Object, error) {
	return []pdfwrite.Object{{
		Nr:   first,
		Body: []byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"),
	}}, nil
}
