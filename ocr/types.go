// Package ocr recognises words in page images of scanned flyers.
//
// Recognition uses the Tesseract engine through gosseract and is compiled in
// only with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// Tesseract and its language data must be installed. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr tesseract-ocr-jpn
//
// Without the tag every operation returns [ErrOCRNotEnabled] and callers
// fall back to treating the page as having no text.
package ocr

import (
	"errors"
	"image"
)

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// DefaultLanguage covers Japanese flyers with Latin contact details.
const DefaultLanguage = "jpn+eng"

// PageSegMode selects how Tesseract segments the page.
type PageSegMode int

// Page segmentation modes used by this package.
const (
	PSM_AUTO         PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_BLOCK PageSegMode = 6  // Single uniform block of text
	PSM_SPARSE_TEXT  PageSegMode = 11 // Find as much text as possible
)

// Word is one recognised word with its box in image pixels (origin top-left).
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Result is the recognition output for one image.
type Result struct {
	Text   string
	Words  []Word
	Width  int
	Height int
}
