package reader

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/text"
)

// A4 portrait, used when a page declares no usable box.
var defaultBox = model.PageBox{Width: 595.28, Height: 841.89}

// Page is the extracted view of one page.
type Page struct {
	Index int
	Box   model.PageBox
	Words []text.Word
	Text  string

	// OCR is set when the words came from image recognition.
	OCR bool

	// Err records a text extraction failure. The page is still usable and
	// simply has no words.
	Err error

	index *text.Index
}

// KeywordIndex returns the keyword index over the page's words.
func (p *Page) KeywordIndex() *text.Index {
	return p.index
}

// PageObject is the raw structure of a page needed to append a revision.
// Dict and Resources are private copies the caller may modify.
type PageObject struct {
	Index int
	Ref   types.IndirectRef
	Dict  types.Dict

	// Resources is the effective resource dictionary including inherited
	// entries, with the Font entry resolved to a direct dictionary.
	Resources types.Dict

	// Contents lists the page's content streams in drawing order.
	Contents []types.Object

	Box    model.PageBox
	Rotate int
}

// PageObject returns the structure of page i (0-based).
func (d *Document) PageObject(i int) (*PageObject, error) {
	if i < 0 || i >= d.pages {
		return nil, fmt.Errorf("page %d out of range [0,%d)", i, d.pages)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pageDict, ref, inh, err := d.ctx.PageDict(i+1, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", i, err)
	}
	if pageDict == nil || ref == nil {
		return nil, fmt.Errorf("page %d: no page dictionary", i)
	}

	obj := &PageObject{
		Index: i,
		Ref:   *ref,
		Dict:  pageDict.Clone().(types.Dict),
		Box:   defaultBox,
	}

	if inh != nil {
		obj.Rotate = inh.Rotate
		switch {
		case inh.CropBox != nil:
			obj.Box = boxFromRect(inh.CropBox)
		case inh.MediaBox != nil:
			obj.Box = boxFromRect(inh.MediaBox)
		}
		if inh.Resources != nil {
			obj.Resources = inh.Resources.Clone().(types.Dict)
		}
	}
	if obj.Resources == nil {
		if res, err := d.ctx.DereferenceDict(pageDict["Resources"]); err == nil && res != nil {
			obj.Resources = res.Clone().(types.Dict)
		} else {
			obj.Resources = types.Dict{}
		}
	}

	if fontObj, ok := obj.Resources["Font"]; ok {
		fonts, err := d.ctx.DereferenceDict(fontObj)
		if err != nil {
			return nil, fmt.Errorf("page %d: font resources: %w", i, err)
		}
		if fonts == nil {
			fonts = types.Dict{}
		}
		obj.Resources["Font"] = fonts.Clone().(types.Dict)
	}

	contents, err := d.contentRefs(pageDict["Contents"])
	if err != nil {
		return nil, fmt.Errorf("page %d: contents: %w", i, err)
	}
	obj.Contents = contents

	return obj, nil
}

// contentRefs flattens a page's Contents entry into the list of stream
// references it names. Must be called with d.mu held.
func (d *Document) contentRefs(o types.Object) ([]types.Object, error) {
	if o == nil {
		return nil, nil
	}
	switch v := o.(type) {
	case types.Array:
		return append([]types.Object(nil), v...), nil
	case types.IndirectRef:
		target, err := d.ctx.Dereference(v)
		if err != nil {
			return nil, err
		}
		if arr, ok := target.(types.Array); ok {
			return append([]types.Object(nil), arr...), nil
		}
		return []types.Object{v}, nil
	default:
		return nil, fmt.Errorf("unexpected Contents type %T", o)
	}
}

func boxFromRect(r *types.Rectangle) model.PageBox {
	if r == nil || r.Width() <= 0 || r.Height() <= 0 {
		return defaultBox
	}
	return model.PageBox{
		Origin: model.Point{X: r.LL.X, Y: r.LL.Y},
		Width:  r.Width(),
		Height: r.Height(),
	}
}

// Page extracts the words and plain text of page i (0-based). Extraction
// failures are recorded on the returned page rather than returned, except
// for an out-of-range index.
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= d.pages {
		return nil, fmt.Errorf("page %d out of range [0,%d)", i, d.pages)
	}

	d.mu.Lock()
	if p, ok := d.cache[i]; ok {
		d.mu.Unlock()
		return p, nil
	}
	d.mu.Unlock()

	box, err := d.PageBox(i)
	if err != nil {
		logger.Warn("page box unavailable, assuming A4", "page", i, "error", err)
		box = defaultBox
	}

	page := &Page{Index: i, Box: box}

	d.mu.Lock()
	glyphs, plain, err := d.extractText(i)
	d.mu.Unlock()
	if err != nil {
		page.Err = err
		logger.Warn("text extraction failed", "page", i, "error", err)
	}

	page.Words = text.MergeWithConfig(relativeTo(glyphs, box), d.opts.Merge)
	page.index = text.NewIndexWithOptions(page.Words, text.IndexOptions{FoldWidth: d.opts.FoldWidth})
	page.Text = strings.TrimSpace(plain)
	if page.Text == "" {
		page.Text = page.index.Text()
	}

	if d.opts.OCR && utf8.RuneCountInString(page.Text) < d.opts.OCRMinChars {
		d.recognise(page)
	}

	d.mu.Lock()
	d.cache[i] = page
	d.mu.Unlock()

	return page, nil
}

// extractText returns the glyph runs and plain text of page i. Must be
// called with d.mu held.
func (d *Document) extractText(i int) (glyphs []text.Glyph, plain string, err error) {
	if d.text == nil {
		return nil, "", fmt.Errorf("no text layer reader")
	}
	if i+1 > d.text.NumPage() {
		return nil, "", fmt.Errorf("page %d missing from text layer", i)
	}

	defer func() {
		if rec := recover(); rec != nil {
			glyphs, plain, err = nil, "", fmt.Errorf("content stream panic: %v", rec)
		}
	}()

	p := d.text.Page(i + 1)
	if p.V.IsNull() {
		return nil, "", fmt.Errorf("page %d is null in text layer", i)
	}

	content := p.Content()
	glyphs = make([]text.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyphFromText(t))
	}

	plain, perr := p.GetPlainText(nil)
	if perr != nil {
		logger.Debug("plain text extraction failed", "page", i, "error", perr)
		plain = ""
	}
	return glyphs, plain, nil
}

func glyphFromText(t pdf.Text) text.Glyph {
	return text.Glyph{
		Text:     t.S,
		X:        t.X,
		Y:        t.Y,
		Width:    t.W,
		FontName: t.Font,
		FontSize: t.FontSize,
	}
}

// relativeTo shifts glyphs so the box origin becomes (0,0).
func relativeTo(glyphs []text.Glyph, box model.PageBox) []text.Glyph {
	if box.Origin.X == 0 && box.Origin.Y == 0 {
		return glyphs
	}
	out := make([]text.Glyph, len(glyphs))
	for i, g := range glyphs {
		g.X -= box.Origin.X
		g.Y -= box.Origin.Y
		out[i] = g
	}
	return out
}
