package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/ocr"
	"github.com/tsawler/mysouku/text"
)

// recognise replaces the page's words with OCR output from its largest
// image. Failures leave the page unchanged.
func (d *Document) recognise(page *Page) {
	img, err := d.largestImage(page.Index)
	if err != nil {
		logger.Debug("no image to recognise", "page", page.Index, "error", err)
		return
	}

	client, err := ocr.New()
	if err != nil {
		if !errors.Is(err, ocr.ErrOCRNotEnabled) {
			logger.Warn("OCR client unavailable", "error", err)
		}
		return
	}
	defer client.Close()

	if d.opts.OCRLanguage != "" {
		if err := client.SetLanguage(d.opts.OCRLanguage); err != nil {
			logger.Warn("OCR language rejected", "language", d.opts.OCRLanguage, "error", err)
		}
	}

	res, err := client.RecognizeImage(img)
	if err != nil {
		logger.Warn("OCR failed", "page", page.Index, "error", err)
		return
	}

	words := wordsFromOCR(res, page.Box)
	if len(words) == 0 {
		return
	}

	page.Words = words
	page.index = text.NewIndexWithOptions(words, text.IndexOptions{FoldWidth: d.opts.FoldWidth})
	page.Text = res.Text
	if page.Text == "" {
		page.Text = page.index.Text()
	}
	page.OCR = true
	page.Err = nil
	logger.Debug("page recognised with OCR", "page", page.Index, "words", len(words))
}

// largestImage returns the encoded bytes of the biggest image on page i.
func (d *Document) largestImage(i int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ocrCtx == nil {
		conf := pdfmodel.NewDefaultConfiguration()
		conf.ValidationMode = pdfmodel.ValidationRelaxed
		ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(d.data), conf)
		if err != nil {
			return nil, fmt.Errorf("image context: %w", err)
		}
		d.ocrCtx = ctx
	}

	images, err := pdfcpu.ExtractPageImages(d.ocrCtx, i+1, false)
	if err != nil {
		return nil, err
	}

	var best []byte
	for _, img := range images {
		b, err := io.ReadAll(img)
		if err != nil {
			continue
		}
		if len(b) > len(best) {
			best = b
		}
	}
	if best == nil {
		return nil, fmt.Errorf("page %d has no images", i)
	}
	return best, nil
}

// wordsFromOCR maps pixel boxes (origin top-left) onto the page box in
// points (origin bottom-left), assuming the image spans the whole page.
func wordsFromOCR(res *ocr.Result, box model.PageBox) []text.Word {
	if res == nil || res.Width <= 0 || res.Height <= 0 {
		return nil
	}
	sx := box.Width / float64(res.Width)
	sy := box.Height / float64(res.Height)

	words := make([]text.Word, 0, len(res.Words))
	for _, w := range res.Words {
		x0 := float64(w.Box.Min.X) * sx
		x1 := float64(w.Box.Max.X) * sx
		y1 := box.Height - float64(w.Box.Min.Y)*sy
		y0 := box.Height - float64(w.Box.Max.Y)*sy
		words = append(words, text.Word{
			Text:     w.Text,
			Box:      model.NewBBoxFromCorners(x0, y0, x1, y1),
			FontSize: y1 - y0,
		})
	}
	return words
}
