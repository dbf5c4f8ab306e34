package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/mysouku/internal/pdfwrite"
	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/reader"
)

// fontResPrefix names the overlay font in page resources.
const fontResPrefix = "MSK"

// PageOutcome reports what happened to one page.
type PageOutcome struct {
	Index        int
	Overlaid     bool
	FontFallback bool

	// Err is the reason the page kept its original revision.
	Err error
}

// Result is the composited document.
type Result struct {
	Bytes []byte
	Pages []PageOutcome
}

// Overlaid returns the number of pages that received the overlay.
func (r *Result) Overlaid() int {
	n := 0
	for _, p := range r.Pages {
		if p.Overlaid {
			n++
		}
	}
	return n
}

// Compositor draws footer overlays onto documents.
type Compositor struct {
	config Config
	fonts  *FontSet

	// beforePage runs at the start of every page preparation.
	beforePage func(i int) error
}

// NewCompositor creates a compositor with default configuration.
func NewCompositor() *Compositor {
	return NewCompositorWithConfig(DefaultConfig())
}

// NewCompositorWithConfig creates a compositor with custom configuration.
// A font file that cannot be loaded is skipped with a warning.
func NewCompositorWithConfig(config Config) *Compositor {
	if config.MaxWorkers < 1 {
		config.MaxWorkers = 1
	}

	var chain []Font
	if config.FontPath != "" {
		f, err := LoadTrueType(config.FontPath)
		if err != nil {
			logger.Warn("overlay font not usable, skipping", "path", config.FontPath, "error", err)
		} else {
			chain = append(chain, f)
		}
	}
	if config.UseBuiltinCJK {
		chain = append(chain, NewJapaneseCIDFont())
	}
	return &Compositor{config: config, fonts: NewFontSet(chain...)}
}

// NewCompositorWithFonts creates a compositor that uses fonts as its font
// chain, ignoring FontPath and UseBuiltinCJK.
func NewCompositorWithFonts(config Config, fonts *FontSet) *Compositor {
	if config.MaxWorkers < 1 {
		config.MaxWorkers = 1
	}
	return &Compositor{config: config, fonts: fonts}
}

// Config returns the compositor configuration.
func (c *Compositor) Config() Config {
	return c.config
}

// Fonts returns the font chain.
func (c *Compositor) Fonts() *FontSet {
	return c.fonts
}

// pagePatch is a prepared page revision awaiting object numbers.
type pagePatch struct {
	obj     *reader.PageObject
	block   *Block
	fontRes string
	ops     []byte
	hasText bool
}

// Composite overlays every page of doc. decisions holds either one
// decision applied to every page or one per page. A page whose overlay
// cannot be built keeps its original revision and reports the reason in
// its outcome; only document-level failures are returned as errors.
func (c *Compositor) Composite(ctx context.Context, doc *reader.Document, decisions []model.FooterDecision, profile model.BrokerProfile) (*Result, error) {
	n := doc.NumPages()
	if len(decisions) != 1 && len(decisions) != n {
		return nil, fmt.Errorf("got %d decisions for %d pages", len(decisions), n)
	}

	patches := make([]*pagePatch, n)
	outcomes := make([]PageOutcome, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxWorkers)
	for i := 0; i < n; i++ {
		d := decisions[0]
		if len(decisions) == n {
			d = decisions[i]
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := c.preparePage(doc, i, d, profile)
			outcomes[i] = PageOutcome{Index: i, Err: err}
			if err != nil {
				logger.Warn("page keeps original content", "page", i, "error", err)
				return nil
			}
			patches[i] = p
			outcomes[i].FontFallback = p.block.Fallback
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out, err := c.assemble(doc, patches)
	if err != nil {
		return nil, err
	}
	for i, p := range patches {
		outcomes[i].Overlaid = p != nil
	}
	return &Result{Bytes: out, Pages: outcomes}, nil
}

// preparePage lays out and renders the overlay for page i without
// allocating object numbers. Panics are converted to errors.
func (c *Compositor) preparePage(doc *reader.Document, i int, d model.FooterDecision, profile model.BrokerProfile) (p *pagePatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("overlay panic: %v", r)
		}
	}()

	if c.beforePage != nil {
		if err := c.beforePage(i); err != nil {
			return nil, err
		}
	}

	obj, err := doc.PageObject(i)
	if err != nil {
		return nil, err
	}

	band := obj.Box.BottomBand(d.HeightPoints())
	if band.Height > obj.Box.Height {
		band.Height = obj.Box.Height
	}
	if band.IsEmpty() {
		return nil, fmt.Errorf("page %d: empty band", i)
	}

	block := Layout(profile, band, c.fonts, c.config)
	p = &pagePatch{
		obj:     obj,
		block:   block,
		hasText: len(block.Lines) > 0,
	}
	fontDict, _ := obj.Resources["Font"].(types.Dict)
	p.fontRes = uniqueResourceName(fontDict, fontResPrefix)
	p.ops = block.Ops(p.fontRes, c.config)

	// Serialise once with placeholder references so a page that cannot be
	// written is dropped before any object number is allocated.
	var buf bytes.Buffer
	if err := pdfwrite.WriteObject(&buf, p.pageDict(pdfwrite.Ref(1), pdfwrite.Ref(2), pdfwrite.Ref(3))); err != nil {
		return nil, fmt.Errorf("page %d: %w", i, err)
	}
	return p, nil
}

// uniqueResourceName returns prefix followed by the smallest number that
// is not already a key of res.
func uniqueResourceName(res types.Dict, prefix string) string {
	for n := 0; ; n++ {
		name := fmt.Sprintf("%s%d", prefix, n)
		if _, taken := res[name]; !taken {
			return name
		}
	}
}

func ref(nr int) types.IndirectRef {
	return types.IndirectRef{ObjectNumber: types.Integer(nr), GenerationNumber: types.Integer(0)}
}

// pageDict returns the new revision of the page dictionary.
func (p *pagePatch) pageDict(pre, post, font types.IndirectRef) types.Dict {
	dict := p.obj.Dict.Clone().(types.Dict)

	contents := make(types.Array, 0, len(p.obj.Contents)+2)
	contents = append(contents, pre)
	contents = append(contents, p.obj.Contents...)
	contents = append(contents, post)
	dict["Contents"] = contents

	res := p.obj.Resources.Clone().(types.Dict)
	if p.hasText {
		fonts, _ := res["Font"].(types.Dict)
		if fonts == nil {
			fonts = types.Dict{}
		}
		fonts[p.fontRes] = font
		res["Font"] = fonts
	}
	dict["Resources"] = res
	return dict
}

// assemble numbers the prepared objects in a fixed order (shared q
// stream, fonts in chain order, then each page's overlay stream) and
// appends them to the original file as one revision.
func (c *Compositor) assemble(doc *reader.Document, patches []*pagePatch) ([]byte, error) {
	var live []*pagePatch
	used := map[Font]bool{}
	for _, p := range patches {
		if p == nil {
			continue
		}
		live = append(live, p)
		if p.hasText {
			used[p.block.Font] = true
		}
	}
	if len(live) == 0 {
		return doc.Bytes(), nil
	}

	rev, err := pdfwrite.NewRevision(doc.Bytes(), doc.Trailer())
	if err != nil {
		return nil, err
	}

	preNr := rev.Alloc(1)
	pre, err := pdfwrite.StreamObject("", []byte("q\n"))
	if err != nil {
		return nil, err
	}
	rev.Add(pdfwrite.Object{Nr: preNr, Body: pre})

	fontRefs := map[Font]types.IndirectRef{}
	for _, f := range c.fonts.Fonts() {
		if !used[f] {
			continue
		}
		first := rev.Alloc(f.objectCount())
		objs, err := f.objects(first)
		if err != nil {
			return nil, fmt.Errorf("font %s: %w", f.BaseName(), err)
		}
		rev.Add(objs...)
		fontRefs[f] = pdfwrite.Ref(first)
	}

	for _, p := range live {
		postNr := rev.Alloc(1)
		post, err := pdfwrite.StreamObject("", append([]byte("Q\n"), p.ops...))
		if err != nil {
			return nil, err
		}
		rev.Add(pdfwrite.Object{Nr: postNr, Body: post})

		var buf bytes.Buffer
		if err := pdfwrite.WriteObject(&buf, p.pageDict(pdfwrite.Ref(preNr), pdfwrite.Ref(postNr), fontRefs[p.block.Font])); err != nil {
			return nil, fmt.Errorf("page %d: %w", p.obj.Index, err)
		}
		rev.Add(pdfwrite.Object{
			Nr:   p.obj.Ref.ObjectNumber.Value(),
			Gen:  p.obj.Ref.GenerationNumber.Value(),
			Body: buf.Bytes(),
		})
	}

	out, err := rev.Bytes()
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("revision produced no output")
	}
	return out, nil
}
