package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/mysouku/model"
)

// Glyph is a positioned run of text as reported by a PDF extractor.
// X, Y is the start of the baseline; Width is the advance of the whole run.
type Glyph struct {
	Text     string
	X, Y     float64
	Width    float64
	FontName string
	FontSize float64
}

// Word is a whitespace-delimited run of text with its bounding box.
type Word struct {
	Text     string
	Box      model.BBox
	FontSize float64
}

// MergeConfig controls how glyphs are joined into words.
type MergeConfig struct {
	// BaselineTolerance is the maximum baseline difference, as a fraction of
	// the font size, for two glyphs to be on the same line.
	// Default: 0.5
	BaselineTolerance float64

	// GapTolerance is the maximum horizontal gap, as a fraction of the font
	// size, between two glyphs of the same word.
	// Default: 0.3
	GapTolerance float64

	// DefaultFontSize is used for glyphs that report no size.
	// Default: 10
	DefaultFontSize float64
}

// DefaultMergeConfig returns the configuration used by [Merge].
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		BaselineTolerance: 0.5,
		GapTolerance:      0.3,
		DefaultFontSize:   10,
	}
}

// Merge joins glyphs into words using [DefaultMergeConfig].
func Merge(glyphs []Glyph) []Word {
	return MergeWithConfig(glyphs, DefaultMergeConfig())
}

// MergeWithConfig joins glyphs into words. Glyph order is preserved; a word
// ends at whitespace, at a baseline change, or at a gap wider than the
// configured tolerance.
func MergeWithConfig(glyphs []Glyph, cfg MergeConfig) []Word {
	words := make([]Word, 0, len(glyphs)/2)

	var cur *Word
	var curBaseline float64
	flush := func() {
		if cur != nil && cur.Text != "" {
			words = append(words, *cur)
		}
		cur = nil
	}

	for _, g := range splitGlyphs(glyphs) {
		size := g.FontSize
		if size <= 0 {
			size = cfg.DefaultFontSize
		}
		if isBlank(g.Text) {
			flush()
			continue
		}

		box := model.NewBBoxFromCorners(g.X, g.Y, g.X+g.Width, g.Y+size)

		if cur != nil {
			sameLine := abs(g.Y-curBaseline) <= cur.FontSize*cfg.BaselineTolerance
			gap := g.X - cur.Box.Right()
			adjacent := gap <= cur.FontSize*cfg.GapTolerance && gap >= -cur.FontSize
			if sameLine && adjacent {
				cur.Text += g.Text
				cur.Box = cur.Box.Union(box)
				if size > cur.FontSize {
					cur.FontSize = size
				}
				continue
			}
			flush()
		}

		cur = &Word{Text: g.Text, Box: box, FontSize: size}
		curBaseline = g.Y
	}
	flush()

	return words
}

// splitGlyphs breaks multi-character runs that contain whitespace into
// separate runs, distributing the advance width in proportion to rune count.
func splitGlyphs(glyphs []Glyph) []Glyph {
	out := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if !strings.ContainsFunc(g.Text, unicode.IsSpace) || utf8.RuneCountInString(g.Text) < 2 {
			out = append(out, g)
			continue
		}

		total := utf8.RuneCountInString(g.Text)
		perRune := g.Width / float64(total)
		x := g.X
		var sb strings.Builder
		start := x
		emit := func() {
			if sb.Len() == 0 {
				return
			}
			part := g
			part.Text = sb.String()
			part.X = start
			part.Width = x - start
			out = append(out, part)
			sb.Reset()
		}
		for _, r := range g.Text {
			if unicode.IsSpace(r) {
				emit()
				space := g
				space.Text = " "
				space.X = x
				space.Width = perRune
				out = append(out, space)
				x += perRune
				start = x
				continue
			}
			sb.WriteRune(r)
			x += perRune
		}
		emit()
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
