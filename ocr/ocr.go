//go:build ocr

package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
	_ "golang.org/x/image/tiff"
)

// Client wraps Tesseract for OCR operations.
type Client struct {
	client *gosseract.Client
}

// New creates a new OCR client set to DefaultLanguage.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(DefaultLanguage, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// SetLanguage sets the language(s) for OCR recognition as a "+" separated
// list (e.g. "jpn+eng").
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(strings.Split(lang, "+")...)
}

// SetPageSegMode sets the page segmentation mode.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return c.client.SetPageSegMode(gosseract.PageSegMode(mode))
}

// RecognizeImage performs OCR on encoded image data (PNG, JPEG, TIFF) and
// returns the page text plus word boxes.
func (c *Client) RecognizeImage(imageData []byte) (*Result, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR word boxes failed: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		w := strings.TrimSpace(b.Word)
		if w == "" {
			continue
		}
		words = append(words, Word{Text: w, Box: b.Box, Confidence: b.Confidence})
	}

	return &Result{
		Text:   strings.TrimSpace(text),
		Words:  words,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
