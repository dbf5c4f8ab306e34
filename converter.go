package mysouku

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/tsawler/mysouku/footer"
	"github.com/tsawler/mysouku/listing"
	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/overlay"
	"github.com/tsawler/mysouku/reader"
	"github.com/tsawler/mysouku/text"
)

// Converter replaces the footer band of listing flyers. It is safe for
// concurrent use.
type Converter struct {
	cfg        *Config
	sem        *semaphore.Weighted
	locator    *footer.KeywordLocator
	policy     *footer.Policy
	compositor *overlay.Compositor
}

// NewConverter validates cfg and creates a converter. A nil cfg uses
// NewDefaultConfig.
func NewConverter(cfg *Config) (*Converter, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}

	overlayCfg := cfg.Overlay
	overlayCfg.MaxWorkers = cfg.MaxWorkers

	logger.Debug("converter initialised",
		"max_workers", cfg.MaxWorkers,
		"max_concurrent_documents", cfg.MaxConcurrentDocuments,
		"per_page", cfg.PerPage,
		"advisor", cfg.Advisor != nil)

	return &Converter{
		cfg:        cfg,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrentDocuments)),
		locator:    footer.NewKeywordLocatorWithConfig(cfg.Locator),
		policy:     footer.NewPolicyWithConfig(cfg.Policy),
		compositor: overlay.NewCompositorWithConfig(overlayCfg),
	}, nil
}

// ConvertDocument returns input with every page's footer band replaced by
// profile's contact block.
func (c *Converter) ConvertDocument(ctx context.Context, input []byte, profile model.BrokerProfile) ([]byte, error) {
	doc, err := c.Convert(ctx, input, profile)
	if err != nil {
		return nil, err
	}
	return doc.Bytes, nil
}

// Convert is ConvertDocument with the per-page outcome and the candidates
// the decision was made from.
func (c *Converter) Convert(ctx context.Context, input []byte, profile model.BrokerProfile) (*model.ConvertedDocument, error) {
	if !profile.HasIdentity() {
		return nil, ErrProfileMissing
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	id := uuid.NewString()
	start := time.Now()
	logger.Info("conversion started", "id", id, "bytes", len(input))

	doc, err := c.open(input)
	if err != nil {
		logger.Warn("conversion rejected", "id", id, "error", err)
		return nil, err
	}

	first, err := c.detect(ctx, doc, 0)
	if err != nil {
		return nil, err
	}

	decisions := []model.FooterDecision{first.Decision}
	if c.cfg.PerPage && doc.NumPages() > 1 {
		for i := 1; i < doc.NumPages(); i++ {
			r, err := c.detect(ctx, doc, i)
			if err != nil {
				return nil, err
			}
			decisions = append(decisions, r.Decision)
		}
	}

	res, err := c.compositor.Composite(ctx, doc, decisions, profile)
	if err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}
	if len(res.Bytes) == 0 {
		return nil, ErrEmptyOutput
	}

	out := &model.ConvertedDocument{
		ID:       id,
		Pages:    make([]model.PageResult, len(res.Pages)),
		Decision: first.Decision,
		Keyword:  first.Keyword,
		Advice:   first.Advice,
		Bytes:    res.Bytes,
	}
	for i, p := range res.Pages {
		d := decisions[0]
		if len(decisions) == len(res.Pages) {
			d = decisions[i]
		}
		pr := model.PageResult{
			Index:        p.Index,
			Status:       model.PageOverlaid,
			Decision:     d,
			FontFallback: p.FontFallback,
		}
		if !p.Overlaid {
			pr.Status = model.PageOriginal
		}
		if p.Err != nil {
			pr.Err = p.Err.Error()
		}
		pr.StatusText = pr.Status.String()
		out.Pages[i] = pr
	}

	logger.Info("conversion finished",
		"id", id,
		"pages", len(out.Pages),
		"overlaid", out.OverlaidCount(),
		"height_mm", first.Decision.HeightMM,
		"confidence", first.Decision.Confidence,
		"elapsed", time.Since(start))
	return out, nil
}

// FooterReport describes the footer band found on one page.
type FooterReport struct {
	Page       int     `json:"page"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`

	// FooterY is the top edge of the decided band, in points from the
	// bottom of the page.
	FooterY float64 `json:"footer_y"`

	// KeywordsFound lists the configured keywords present on the page.
	KeywordsFound []string `json:"keywords_found"`

	Keyword  model.FooterCandidate  `json:"keyword_candidate"`
	Advice   *model.FooterCandidate `json:"advisor_candidate,omitempty"`
	Decision model.FooterDecision   `json:"decision"`
}

// DetectFooter reports the footer band of the first page without modifying
// the document.
func (c *Converter) DetectFooter(ctx context.Context, input []byte) (*FooterReport, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	doc, err := c.open(input)
	if err != nil {
		return nil, err
	}
	return c.detect(ctx, doc, 0)
}

// ExtractListing recognises the property fields of a flyer. It also returns
// the text they were read from, all pages joined by newlines.
func (c *Converter) ExtractListing(ctx context.Context, input []byte) (*listing.Listing, string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, "", err
	}
	defer c.sem.Release(1)

	doc, err := c.open(input)
	if err != nil {
		return nil, "", err
	}

	var sb strings.Builder
	for i := 0; i < doc.NumPages(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		page, err := doc.Page(i)
		if err != nil {
			return nil, "", err
		}
		if page.Text == "" {
			continue
		}
		sb.WriteString(page.Text)
		sb.WriteByte('\n')
	}

	raw := sb.String()
	l := listing.Extract(raw)
	logger.Debug("listing extracted", "pages", doc.NumPages(), "chars", len(raw), "features", len(l.Features))
	return &l, raw, nil
}

func (c *Converter) open(input []byte) (*reader.Document, error) {
	opts := c.cfg.Reader
	opts.MaxBytes = c.cfg.MaxInputBytes
	return reader.Open(input, opts)
}

// detect runs the locator, the advisor and the policy on page i.
func (c *Converter) detect(ctx context.Context, doc *reader.Document, i int) (*FooterReport, error) {
	page, err := doc.Page(i)
	if err != nil {
		return nil, err
	}
	if page.Err != nil {
		logger.Warn("no text layer, detection falls back to defaults", "page", i, "error", page.Err)
	}

	idx := page.KeywordIndex()
	keyword := c.locator.Locate(idx, page.Box.Height)
	advice := c.advise(ctx, page.Text)
	decision := c.policy.Decide(keyword, advice)

	report := &FooterReport{
		Page:          i,
		PageWidth:     page.Box.Width,
		PageHeight:    page.Box.Height,
		FooterY:       decision.HeightPoints(),
		KeywordsFound: keywordsFound(idx, c.locator.Config().Keywords),
		Keyword:       keyword,
		Advice:        advice,
		Decision:      decision,
	}

	logger.Debug("footer decided",
		"page", i,
		"keyword_mm", keyword.HeightMM,
		"keyword_confidence", keyword.Confidence,
		"height_mm", decision.HeightMM,
		"confidence", decision.Confidence,
		"rationale", decision.Rationale)
	return report, nil
}

// advise consults the advisor. Any failure is logged and treated as no
// advice.
func (c *Converter) advise(ctx context.Context, pageText string) *model.FooterCandidate {
	if c.cfg.Advisor == nil {
		return nil
	}
	if c.cfg.AdvisorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.AdvisorTimeout)
		defer cancel()
	}

	advice, err := c.cfg.Advisor.Advise(ctx, pageText)
	if err != nil {
		level := logger.Warn
		if errors.Is(err, context.DeadlineExceeded) {
			level = logger.Info
		}
		level("advisor unavailable, using keyword detection", "error", err)
		return nil
	}
	if advice != nil {
		a := *advice
		a.Source = model.SourceHeuristic
		a.HeightMM = model.ClampHeightMM(a.HeightMM)
		a.Confidence = model.ClampConfidence(a.Confidence)
		advice = &a
	}
	return advice
}

// keywordsFound returns the keywords present on the page, in keyword order.
func keywordsFound(idx *text.Index, keywords []string) []string {
	var found []string
	for _, kw := range keywords {
		if len(idx.WordsContaining([]string{kw})) > 0 {
			found = append(found, kw)
		}
	}
	return found
}
