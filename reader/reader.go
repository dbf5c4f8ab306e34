package reader

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tsawler/mysouku/internal/pdfwrite"
	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/text"
)

var (
	// ErrUnparseable is returned when the input is not a readable PDF.
	ErrUnparseable = errors.New("unparseable PDF")
	// ErrNoPages is returned for a PDF without pages.
	ErrNoPages = errors.New("PDF has no pages")
	// ErrEncrypted is returned for encrypted PDFs, which cannot be updated
	// in place without their keys.
	ErrEncrypted = errors.New("PDF is encrypted")
	// ErrTooLarge is returned when the input exceeds Options.MaxBytes.
	ErrTooLarge = errors.New("PDF exceeds size limit")
)

// Options controls document loading and text extraction.
type Options struct {
	// MaxBytes rejects larger inputs. Zero disables the limit.
	// Default: 16 MiB
	MaxBytes int64

	// FoldWidth enables width-insensitive keyword matching on page indexes.
	FoldWidth bool

	// OCR recognises image-only pages. Requires the "ocr" build tag.
	OCR bool

	// OCRMinChars is the text-layer length below which OCR is attempted.
	// Default: 100
	OCRMinChars int

	// OCRLanguage is passed to Tesseract.
	// Default: "jpn+eng"
	OCRLanguage string

	// Merge controls glyph-to-word merging.
	Merge text.MergeConfig
}

// DefaultOptions returns the loading options used by the converter.
func DefaultOptions() Options {
	return Options{
		MaxBytes:    16 << 20,
		OCRMinChars: 100,
		OCRLanguage: "jpn+eng",
		Merge:       text.DefaultMergeConfig(),
	}
}

var headerPattern = regexp.MustCompile(`%PDF-\d\.\d`)

// Trailer is the subset of the document trailer an incremental update
// must carry forward.
type Trailer = pdfwrite.Trailer

// Document is a loaded PDF. It is safe for concurrent use.
type Document struct {
	data []byte
	opts Options

	mu     sync.Mutex
	ctx    *pdfmodel.Context
	text   *pdf.Reader
	pages  int
	cache  map[int]*Page
	ocrCtx *pdfmodel.Context
}

// Open parses data as a PDF.
func Open(data []byte, opts Options) (*Document, error) {
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(data), opts.MaxBytes)
	}

	if !headerPattern.Match(head(data, 1024)) {
		return nil, fmt.Errorf("%w: missing %%PDF header", ErrUnparseable)
	}

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		if looksEncrypted(data) {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if ctx.Encrypt != nil {
		return nil, ErrEncrypted
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: page tree: %v", ErrUnparseable, err)
	}
	if ctx.PageCount < 1 {
		return nil, ErrNoPages
	}

	doc := &Document{
		data:  data,
		opts:  opts,
		ctx:   ctx,
		pages: ctx.PageCount,
		cache: make(map[int]*Page),
	}

	view, err := textView(data, ctx)
	if err != nil {
		logger.Warn("joining content arrays failed, reading original", "error", err)
		view = data
	}
	tr, err := openTextReader(view)
	if err != nil {
		logger.Warn("text layer unavailable", "error", err)
	} else {
		doc.text = tr
	}

	return doc, nil
}

func openTextReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("text reader panic: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func head(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}

var encryptPattern = regexp.MustCompile(`/Encrypt\s+\d+\s+\d+\s+R`)

func looksEncrypted(data []byte) bool {
	return encryptPattern.Match(data)
}

// Bytes returns the original input. The slice must not be modified.
func (d *Document) Bytes() []byte {
	return d.data
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int {
	return d.pages
}

// Trailer returns the trailer entries needed to append a revision.
func (d *Document) Trailer() Trailer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return trailerOf(d.ctx)
}

func trailerOf(ctx *pdfmodel.Context) Trailer {
	t := Trailer{
		Root: ctx.Root,
		Info: ctx.Info,
		ID:   ctx.ID,
	}
	if ctx.Size != nil {
		t.Size = *ctx.Size
	}
	for objNr := range ctx.Table {
		if objNr+1 > t.Size {
			t.Size = objNr + 1
		}
	}
	return t
}

// PageBox returns the visible box of page i (0-based).
func (d *Document) PageBox(i int) (model.PageBox, error) {
	obj, err := d.PageObject(i)
	if err != nil {
		return model.PageBox{}, err
	}
	return obj.Box, nil
}
