package overlay

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/tsawler/mysouku/internal/pdfwrite"
)

// Font renders overlay text.
type Font interface {
	// BaseName is the PostScript name of the font.
	BaseName() string

	// Covers reports whether every rune of s can be shown.
	Covers(s string) bool

	// Encode returns the hex string operand (without delimiters) that shows
	// s. It records the glyphs used so the font objects can describe them.
	// Encode is safe for concurrent use.
	Encode(s string) string

	// Width returns the advance width of s at size, in points.
	Width(s string, size float64) float64

	objectCount() int
	objects(first int) ([]pdfwrite.Object, error)
}

// FontSet is an ordered font fallback chain ending in Helvetica.
type FontSet struct {
	fonts    []Font
	fallback *Helvetica
}

// NewFontSet creates a chain from fonts, in preference order. Helvetica is
// always appended as the last resort.
func NewFontSet(fonts ...Font) *FontSet {
	s := &FontSet{fallback: NewHelvetica()}
	for _, f := range fonts {
		if f != nil {
			s.fonts = append(s.fonts, f)
		}
	}
	s.fonts = append(s.fonts, s.fallback)
	return s
}

// Fonts returns the chain in preference order.
func (s *FontSet) Fonts() []Font {
	return append([]Font(nil), s.fonts...)
}

// Select returns the first font that covers every text. When none does,
// it returns Helvetica and reduced=true.
func (s *FontSet) Select(texts ...string) (f Font, reduced bool) {
	for _, f := range s.fonts {
		ok := true
		for _, t := range texts {
			if !f.Covers(t) {
				ok = false
				break
			}
		}
		if ok {
			return f, false
		}
	}
	return s.fallback, true
}

// Fallback returns the last-resort font.
func (s *FontSet) Fallback() *Helvetica {
	return s.fallback
}

// toUnicodeCMap maps 2-byte codes to the runes they show.
func toUnicodeCMap(name string, codes map[uint16]rune) []byte {
	keys := make([]int, 0, len(codes))
	for c := range codes {
		keys = append(keys, int(c))
	}
	sort.Ints(keys)

	var sb strings.Builder
	sb.WriteString("/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n")
	sb.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n")
	fmt.Fprintf(&sb, "/CMapName /%s def\n/CMapType 2 def\n", name)
	sb.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")
	for start := 0; start < len(keys); start += 100 {
		end := start + 100
		if end > len(keys) {
			end = len(keys)
		}
		fmt.Fprintf(&sb, "%d beginbfchar\n", end-start)
		for _, k := range keys[start:end] {
			fmt.Fprintf(&sb, "<%04X> <", k)
			for _, u := range utf16.Encode([]rune{codes[uint16(k)]}) {
				fmt.Fprintf(&sb, "%04X", u)
			}
			sb.WriteString(">\n")
		}
		sb.WriteString("endbfchar\n")
	}
	sb.WriteString("endcmap\nCMapName currentdict /CMap defineresource pop\nend\nend\n")
	return []byte(sb.String())
}

// pdfName sanitises s for use as a PDF name token.
func pdfName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '+':
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "Font"
	}
	return sb.String()
}
