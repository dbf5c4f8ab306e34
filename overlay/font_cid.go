package overlay

import (
	"fmt"
	"unicode"

	"golang.org/x/text/width"

	"github.com/tsawler/mysouku/internal/filters"
	"github.com/tsawler/mysouku/internal/pdfwrite"
)

// JapaneseCIDFont is the Adobe-Japan1 Gothic font every CJK-capable viewer
// provides. It is referenced by name and not embedded; text is encoded as
// UCS-2 through the UniJIS-UCS2-HW-H CMap, which maps ASCII to half-width
// glyphs.
type JapaneseCIDFont struct {
	name string
}

// NewJapaneseCIDFont returns the HeiseiKakuGo-W5 CID font.
func NewJapaneseCIDFont() *JapaneseCIDFont {
	return &JapaneseCIDFont{name: "HeiseiKakuGo-W5"}
}

// BaseName implements Font.
func (f *JapaneseCIDFont) BaseName() string {
	return f.name
}

// Covers implements Font. Any printable BMP character is accepted.
func (f *JapaneseCIDFont) Covers(s string) bool {
	for _, r := range s {
		if r > 0xFFFF || (r >= 0xD800 && r <= 0xDFFF) {
			return false
		}
		if !unicode.IsPrint(r) && r != ' ' && r != '　' {
			return false
		}
	}
	return true
}

// Encode implements Font.
func (f *JapaneseCIDFont) Encode(s string) string {
	b := make([]byte, 0, 2*len(s))
	for _, r := range s {
		if r > 0xFFFF {
			continue
		}
		b = append(b, byte(r>>8), byte(r))
	}
	return filters.ASCIIHexEncode(b)
}

// Width implements Font. Wide and ambiguous characters take a full em,
// everything else half.
func (f *JapaneseCIDFont) Width(s string, size float64) float64 {
	total := 0.0
	for _, r := range s {
		total += cjkAdvance(r)
	}
	return total * size
}

func cjkAdvance(r rune) float64 {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth, width.EastAsianAmbiguous:
		return 1
	default:
		return 0.5
	}
}

func (f *JapaneseCIDFont) objectCount() int {
	return 3
}

func (f *JapaneseCIDFont) objects(first int) ([]pdfwrite.Object, error) {
	const encoding = "UniJIS-UCS2-HW-H"
	return []pdfwrite.Object{
		{
			Nr: first,
			Body: []byte(fmt.Sprintf(
				"<< /Type /Font /Subtype /Type0 /BaseFont /%s-%s /Encoding /%s /DescendantFonts [%d 0 R] >>",
				f.name, encoding, encoding, first+1)),
		},
		{
			Nr: first + 1,
			Body: []byte(fmt.Sprintf(
				"<< /Type /Font /Subtype /CIDFontType0 /BaseFont /%s "+
					"/CIDSystemInfo << /Registry (Adobe) /Ordering (Japan1) /Supplement 2 >> "+
					"/FontDescriptor %d 0 R /DW 1000 /W [231 632 500] >>",
				f.name, first+2)),
		},
		{
			Nr: first + 2,
			Body: []byte(fmt.Sprintf(
				"<< /Type /FontDescriptor /FontName /%s /Flags 4 /FontBBox [-92 -250 1010 922] "+
					"/ItalicAngle 0 /Ascent 752 /Descent -221 /CapHeight 737 /StemV 114 >>",
				f.name)),
		},
	}, nil
}
