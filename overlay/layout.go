package overlay

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tsawler/mysouku/internal/pdfwrite"
	"github.com/tsawler/mysouku/model"
)

// Color is an RGB colour with components in [0,1].
type Color struct {
	R float64 `yaml:"r" json:"r" validate:"gte=0,lte=1"`
	G float64 `yaml:"g" json:"g" validate:"gte=0,lte=1"`
	B float64 `yaml:"b" json:"b" validate:"gte=0,lte=1"`
}

var (
	White = Color{1, 1, 1}
	Black = Color{0, 0, 0}
)

// Config holds the layout and rendering settings of the overlay.
type Config struct {
	// FontPath is a TrueType file tried before the built-in fonts.
	// Default: "" (none)
	FontPath string `yaml:"font_path"`

	// UseBuiltinCJK enables the non-embedded Japanese CID font.
	// Default: true
	UseBuiltinCJK bool `yaml:"use_builtin_cjk"`

	// LeftColumnEnd and CenterColumnEnd are the column boundaries as
	// fractions of the band width.
	// Default: 0.35 and 0.80
	LeftColumnEnd   float64 `yaml:"left_column_end" validate:"gt=0,lt=1"`
	CenterColumnEnd float64 `yaml:"center_column_end" validate:"gtfield=LeftColumnEnd,lt=1"`

	// HMarginMM is the inset from the page edges. Inner column edges use
	// half of it.
	// Default: 8
	HMarginMM float64 `yaml:"h_margin_mm" validate:"gte=0"`

	// VMarginMM is the inset from the band top and bottom, capped at 15%
	// of the band height.
	// Default: 4
	VMarginMM float64 `yaml:"v_margin_mm" validate:"gte=0"`

	// LineGapMM is the distance between the two baselines of a column.
	// Default: 8
	LineGapMM float64 `yaml:"line_gap_mm" validate:"gt=0"`

	// Type sizes in points.
	// Default: 11, 8, 7 and a floor of 4
	LargeSize  float64 `yaml:"large_size" validate:"gt=0"`
	NormalSize float64 `yaml:"normal_size" validate:"gt=0"`
	SmallSize  float64 `yaml:"small_size" validate:"gt=0"`
	MinSize    float64 `yaml:"min_size" validate:"gt=0"`

	FillColor Color `yaml:"fill_color"`
	TextColor Color `yaml:"text_color"`

	// MaxWorkers bounds how many pages are prepared concurrently.
	// Default: 4
	MaxWorkers int `yaml:"max_workers" validate:"gte=1"`
}

// DefaultConfig returns the default overlay configuration.
func DefaultConfig() Config {
	return Config{
		UseBuiltinCJK:   true,
		LeftColumnEnd:   0.35,
		CenterColumnEnd: 0.80,
		HMarginMM:       8,
		VMarginMM:       4,
		LineGapMM:       8,
		LargeSize:       11,
		NormalSize:      8,
		SmallSize:       7,
		MinSize:         4,
		FillColor:       White,
		TextColor:       Black,
		MaxWorkers:      4,
	}
}

// Line is one positioned line of overlay text. X and Y are the baseline
// start in default user space.
type Line struct {
	Text string
	X    float64
	Y    float64
	Size float64
}

// Block is the laid-out contact block for one band.
type Block struct {
	Band  model.BBox
	Font  Font
	Lines []Line

	// Fallback is set when no font could show the full profile and only
	// the reduced company name was laid out.
	Fallback bool
}

type column struct {
	x, width float64
	upper    string
	lower    string
	upperSz  float64
	lowerSz  float64
}

// Layout places the broker profile in band using the first font of fonts
// that covers every line.
func Layout(p model.BrokerProfile, band model.BBox, fonts *FontSet, cfg Config) *Block {
	p = p.Normalized()
	cols := columns(p, band, cfg)

	var texts []string
	for _, c := range cols {
		if c.upper != "" {
			texts = append(texts, c.upper)
		}
		if c.lower != "" {
			texts = append(texts, c.lower)
		}
	}

	block := &Block{Band: band}
	f, reduced := fonts.Select(texts...)
	block.Font = f
	if reduced {
		block.Fallback = true
		name := fonts.Fallback().Reduce(p.CompanyName)
		left := cols[0]
		left.upper, left.lower = "", name
		cols = []column{left}
	}

	vMargin := model.MMToPoints(cfg.VMarginMM)
	if m := band.Height * 0.15; m < vMargin {
		vMargin = m
	}
	gap := model.MMToPoints(cfg.LineGapMM)

	upperSz := 0.0
	for _, c := range cols {
		if c.upperSz > upperSz {
			upperSz = c.upperSz
		}
	}
	scale := 1.0
	if avail := band.Height - 2*vMargin; upperSz+gap > avail && avail > 0 {
		scale = avail / (upperSz + gap)
	}

	upperY := band.Top() - vMargin - upperSz*scale
	lowerY := upperY - gap*scale

	for _, c := range cols {
		if l, ok := fitLine(f, c.upper, c.upperSz*scale, c.width, cfg.MinSize); ok {
			l.X, l.Y = c.x, upperY
			block.Lines = append(block.Lines, l)
		}
		if l, ok := fitLine(f, c.lower, c.lowerSz*scale, c.width, cfg.MinSize); ok {
			l.X, l.Y = c.x, lowerY
			block.Lines = append(block.Lines, l)
		}
	}
	return block
}

// columns returns the text columns for p, left to right. The right column
// is present only when the profile has an email address or a website.
func columns(p model.BrokerProfile, band model.BBox, cfg Config) []column {
	hMargin := model.MMToPoints(cfg.HMarginMM)
	bounds := []float64{0, cfg.LeftColumnEnd, cfg.CenterColumnEnd, 1}

	var center []string
	if p.PostalCode != "" {
		center = append(center, "〒"+p.PostalCode)
	}
	if p.Address != "" {
		center = append(center, p.Address)
	}

	var phones []string
	if p.Phone != "" {
		phones = append(phones, "TEL "+p.Phone)
	}
	if p.Fax != "" {
		phones = append(phones, "FAX "+p.Fax)
	}

	texts := [][2]string{
		{p.LicenseNumber, p.CompanyName},
		{strings.Join(center, " "), strings.Join(phones, " / ")},
		{p.Email, p.Website},
	}
	sizes := [][2]float64{
		{cfg.SmallSize, cfg.LargeSize},
		{cfg.NormalSize, cfg.NormalSize},
		{cfg.NormalSize, cfg.NormalSize},
	}

	n := 3
	if p.Email == "" && p.Website == "" {
		n = 2
	}

	cols := make([]column, 0, n)
	for i := 0; i < n; i++ {
		x0 := band.X + bounds[i]*band.Width
		x1 := band.X + bounds[i+1]*band.Width
		left, right := hMargin/2, hMargin/2
		if i == 0 {
			left = hMargin
		}
		if i == 2 || (i == 1 && n == 2) {
			right = hMargin
		}
		w := x1 - x0 - left - right
		if w <= 0 {
			w = (x1 - x0) * 0.8
			left = (x1 - x0) * 0.1
		}
		cols = append(cols, column{
			x:       x0 + left,
			width:   w,
			upper:   texts[i][0],
			lower:   texts[i][1],
			upperSz: sizes[i][0],
			lowerSz: sizes[i][1],
		})
	}
	return cols
}

// fitLine shrinks s until it fits maxWidth, and truncates it once the
// minimum size is reached.
func fitLine(f Font, s string, size, maxWidth, minSize float64) (Line, bool) {
	if s == "" || size <= 0 {
		return Line{}, false
	}
	if w := f.Width(s, size); w > maxWidth && w > 0 {
		size = size * maxWidth / w
	}
	if size < minSize {
		size = minSize
		runes := []rune(s)
		for len(runes) > 0 && f.Width(string(runes), size) > maxWidth {
			runes = runes[:len(runes)-1]
		}
		s = strings.TrimSpace(string(runes))
	}
	if s == "" {
		return Line{}, false
	}
	return Line{Text: s, Size: size}, true
}

// Ops returns the content stream operators drawing the band and its text.
// fontRes is the resource name the block's font is registered under.
func (b *Block) Ops(fontRes string, cfg Config) []byte {
	var buf bytes.Buffer
	buf.WriteString("q\n")
	writeColor(&buf, cfg.FillColor)
	fmt.Fprintf(&buf, "%s %s %s %s re f\n",
		pdfwrite.FormatNumber(b.Band.X), pdfwrite.FormatNumber(b.Band.Y),
		pdfwrite.FormatNumber(b.Band.Width), pdfwrite.FormatNumber(b.Band.Height))

	if len(b.Lines) > 0 {
		writeColor(&buf, cfg.TextColor)
		for _, l := range b.Lines {
			fmt.Fprintf(&buf, "BT /%s %s Tf 1 0 0 1 %s %s Tm <%s> Tj ET\n",
				fontRes, pdfwrite.FormatNumber(l.Size), pdfwrite.FormatNumber(l.X), pdfwrite.FormatNumber(l.Y), b.Font.Encode(l.Text))
		}
	}
	buf.WriteString("Q\n")
	return buf.Bytes()
}

func writeColor(buf *bytes.Buffer, c Color) {
	fmt.Fprintf(buf, "%s %s %s rg\n", pdfwrite.FormatNumber(c.R), pdfwrite.FormatNumber(c.G), pdfwrite.FormatNumber(c.B))
}
