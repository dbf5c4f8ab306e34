package text

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Match is a word that contains one of the searched keywords.
type Match struct {
	Word    Word
	Keyword string
}

// IndexOptions tunes keyword matching.
type IndexOptions struct {
	// FoldWidth compares NFKC forms so full-width and half-width variants
	// of the same character match each other.
	FoldWidth bool
}

// Index is an immutable view of a page's words in extraction order.
type Index struct {
	words  []Word
	folded []string
	opts   IndexOptions
}

// NewIndex creates an index with exact, case-sensitive matching.
func NewIndex(words []Word) *Index {
	return NewIndexWithOptions(words, IndexOptions{})
}

// NewIndexWithOptions creates an index with the given matching options.
func NewIndexWithOptions(words []Word, opts IndexOptions) *Index {
	idx := &Index{
		words: make([]Word, len(words)),
		opts:  opts,
	}
	copy(idx.words, words)

	if opts.FoldWidth {
		idx.folded = make([]string, len(words))
		for i, w := range words {
			idx.folded[i] = norm.NFKC.String(w.Text)
		}
	}
	return idx
}

// Len returns the number of indexed words.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.words)
}

// Words returns a copy of the indexed words in extraction order.
func (idx *Index) Words() []Word {
	if idx == nil {
		return nil
	}
	out := make([]Word, len(idx.words))
	copy(out, idx.words)
	return out
}

// WordsContaining returns every word that contains any of the keywords as a
// substring, in extraction order. A word is reported once, against the first
// keyword (in keyword order) it contains.
func (idx *Index) WordsContaining(keywords []string) []Match {
	if idx.Len() == 0 || len(keywords) == 0 {
		return nil
	}

	needles := keywords
	if idx.opts.FoldWidth {
		needles = make([]string, len(keywords))
		for i, k := range keywords {
			needles[i] = norm.NFKC.String(k)
		}
	}

	var matches []Match
	for i, w := range idx.words {
		hay := w.Text
		if idx.opts.FoldWidth {
			hay = idx.folded[i]
		}
		for k, needle := range needles {
			if needle != "" && strings.Contains(hay, needle) {
				matches = append(matches, Match{Word: w, Keyword: keywords[k]})
				break
			}
		}
	}
	return matches
}

// Text renders the words as plain text, top line first. Words on one line
// are ordered left to right and separated by a space only where the gap
// between them is wider than a quarter of the font size.
func (idx *Index) Text() string {
	if idx.Len() == 0 {
		return ""
	}

	lines := idx.groupByLine()

	var sb strings.Builder
	for i, line := range lines {
		for j, w := range line {
			if j > 0 {
				prev := line[j-1]
				if w.Box.Left()-prev.Box.Right() > prev.FontSize*0.25 {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(w.Text)
		}
		if i < len(lines)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (idx *Index) groupByLine() [][]Word {
	sorted := make([]Word, len(idx.words))
	copy(sorted, idx.words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.Bottom() > sorted[j].Box.Bottom()
	})

	var lines [][]Word
	current := []Word{sorted[0]}
	for _, w := range sorted[1:] {
		ref := current[0]
		if abs(w.Box.Bottom()-ref.Box.Bottom()) <= ref.FontSize*0.5 {
			current = append(current, w)
			continue
		}
		lines = append(lines, current)
		current = []Word{w}
	}
	lines = append(lines, current)

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].Box.Left() < line[j].Box.Left()
		})
	}
	return lines
}
