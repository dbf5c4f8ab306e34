package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/tsawler/mysouku/internal/pdfwrite"
)

// ErrUnsupportedFont is returned for font files that cannot be embedded as
// TrueType outlines (CFF-flavoured OpenType, collections, other formats).
var ErrUnsupportedFont = errors.New("unsupported font file")

// TrueTypeFont is a TrueType font embedded whole as a CIDFontType2 with
// Identity-H encoding. Codes are glyph indexes.
type TrueTypeFont struct {
	data []byte
	name string
	sf   *sfnt.Font
	upem fixed.Int26_6

	mu   sync.Mutex
	buf  sfnt.Buffer
	used map[sfnt.GlyphIndex]rune
}

// LoadTrueType reads and parses a TrueType font file.
func LoadTrueType(path string) (*TrueTypeFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return ParseTrueType(data)
}

// ParseTrueType parses TrueType font data.
func ParseTrueType(data []byte) (*TrueTypeFont, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: too short", ErrUnsupportedFont)
	}
	magic := data[:4]
	if !bytes.Equal(magic, []byte{0, 1, 0, 0}) && !bytes.Equal(magic, []byte("true")) {
		return nil, fmt.Errorf("%w: not a TrueType outline font (%q)", ErrUnsupportedFont, magic)
	}

	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFont, err)
	}

	f := &TrueTypeFont{
		data: data,
		sf:   sf,
		upem: fixed.I(int(sf.UnitsPerEm())),
		used: make(map[sfnt.GlyphIndex]rune),
	}

	name, err := sf.Name(&f.buf, sfnt.NameIDPostScript)
	if err != nil || name == "" {
		name, _ = sf.Name(&f.buf, sfnt.NameIDFull)
	}
	f.name = pdfName(name)
	return f, nil
}

// BaseName implements Font.
func (f *TrueTypeFont) BaseName() string {
	return f.name
}

// Covers implements Font.
func (f *TrueTypeFont) Covers(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range s {
		gi, err := f.sf.GlyphIndex(&f.buf, r)
		if err != nil || gi == 0 {
			return false
		}
	}
	return true
}

// Encode implements Font.
func (f *TrueTypeFont) Encode(s string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sb strings.Builder
	for _, r := range s {
		gi, err := f.sf.GlyphIndex(&f.buf, r)
		if err != nil {
			gi = 0
		}
		if gi != 0 {
			if _, seen := f.used[gi]; !seen {
				f.used[gi] = r
			}
		}
		fmt.Fprintf(&sb, "%04X", uint16(gi))
	}
	return sb.String()
}

// Width implements Font.
func (f *TrueTypeFont) Width(s string, size float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0.0
	for _, r := range s {
		gi, err := f.sf.GlyphIndex(&f.buf, r)
		if err != nil {
			continue
		}
		total += f.advance1000(gi)
	}
	return total * size / 1000
}

// advance1000 returns the advance of gi in thousandths of an em. Must be
// called with f.mu held.
func (f *TrueTypeFont) advance1000(gi sfnt.GlyphIndex) float64 {
	adv, err := f.sf.GlyphAdvance(&f.buf, gi, f.upem, font.HintingNone)
	if err != nil {
		return 1000
	}
	return float64(adv) / float64(f.upem) * 1000
}

func (f *TrueTypeFont) to1000(v fixed.Int26_6) int {
	return int(float64(v) / float64(f.upem) * 1000)
}

func (f *TrueTypeFont) objectCount() int {
	return 5
}

func (f *TrueTypeFont) objects(first int) ([]pdfwrite.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	gids := make([]int, 0, len(f.used))
	for gi := range f.used {
		gids = append(gids, int(gi))
	}
	sort.Ints(gids)

	var w strings.Builder
	w.WriteString("[")
	codes := make(map[uint16]rune, len(gids))
	for i, gi := range gids {
		if i > 0 {
			w.WriteByte(' ')
		}
		fmt.Fprintf(&w, "%d [%d]", gi, int(f.advance1000(sfnt.GlyphIndex(gi))+0.5))
		codes[uint16(gi)] = f.used[sfnt.GlyphIndex(gi)]
	}
	w.WriteString("]")

	bounds, err := f.sf.Bounds(&f.buf, f.upem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font bounds: %w", err)
	}
	metrics, err := f.sf.Metrics(&f.buf, f.upem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font metrics: %w", err)
	}
	capHeight := metrics.CapHeight
	if capHeight == 0 {
		capHeight = metrics.Ascent
	}

	fontFile, err := pdfwrite.StreamObject(fmt.Sprintf(" /Length1 %d", len(f.data)), f.data)
	if err != nil {
		return nil, err
	}
	cmap, err := pdfwrite.StreamObject("", toUnicodeCMap(f.name+"-UTF16", codes))
	if err != nil {
		return nil, err
	}

	// sfnt bounds are y-down; PDF font space is y-up.
	return []pdfwrite.Object{
		{
			Nr: first,
			Body: []byte(fmt.Sprintf(
				"<< /Type /Font /Subtype /Type0 /BaseFont /%s /Encoding /Identity-H /DescendantFonts [%d 0 R] /ToUnicode %d 0 R >>",
				f.name, first+1, first+4)),
		},
		{
			Nr: first + 1,
			Body: []byte(fmt.Sprintf(
				"<< /Type /Font /Subtype /CIDFontType2 /BaseFont /%s "+
					"/CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> "+
					"/FontDescriptor %d 0 R /CIDToGIDMap /Identity /DW 1000 /W %s >>",
				f.name, first+2, w.String())),
		},
		{
			Nr: first + 2,
			Body: []byte(fmt.Sprintf(
				"<< /Type /FontDescriptor /FontName /%s /Flags 4 /FontBBox [%d %d %d %d] "+
					"/ItalicAngle 0 /Ascent %d /Descent %d /CapHeight %d /StemV 80 /FontFile2 %d 0 R >>",
				f.name,
				f.to1000(bounds.Min.X), -f.to1000(bounds.Max.Y), f.to1000(bounds.Max.X), -f.to1000(bounds.Min.Y),
				f.to1000(metrics.Ascent), -f.to1000(metrics.Descent), f.to1000(capHeight),
				first+3)),
		},
		{Nr: first + 3, Body: fontFile},
		{Nr: first + 4, Body: cmap},
	}, nil
}
