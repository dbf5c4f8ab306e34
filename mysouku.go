// Package mysouku rebrands real-estate listing flyers (マイソク).
//
// A flyer arrives with the originating broker's contact block printed in a
// band along the bottom of each page. The converter finds that band, covers
// it, and prints the receiving broker's details in its place:
//
//	conv, err := mysouku.NewConverter(mysouku.NewDefaultConfig())
//	if err != nil {
//	    // handle error
//	}
//	out, err := conv.ConvertDocument(ctx, pdfBytes, profile)
//
// Band height is found from the positions of footer keywords (会社名, TEL,
// 免許 ...) on the first page, optionally checked against an [advisor.Advisor],
// and reduced to a single decision by [footer.Policy]. Every page is then
// patched with a PDF incremental update, so the original file is kept intact
// as the prefix of the output.
//
// For lower-level use the reader, footer, overlay and listing packages are
// available on their own.
package mysouku

import (
	"errors"

	"github.com/tsawler/mysouku/reader"
)

// Fatal conversion errors. Everything else degrades: an unreachable
// advisor falls back to keyword detection and a page that cannot be patched
// keeps its original content.
var (
	// ErrUnparseable is returned when the input is not a readable PDF.
	ErrUnparseable = reader.ErrUnparseable
	// ErrNoPages is returned for a PDF without pages.
	ErrNoPages = reader.ErrNoPages
	// ErrEncrypted is returned for encrypted input.
	ErrEncrypted = reader.ErrEncrypted
	// ErrTooLarge is returned when the input exceeds Config.MaxInputBytes.
	ErrTooLarge = reader.ErrTooLarge
	// ErrProfileMissing is returned when no broker identity is supplied.
	ErrProfileMissing = errors.New("broker profile missing")
	// ErrEmptyOutput is returned if compositing produced no bytes.
	ErrEmptyOutput = errors.New("conversion produced empty output")
)
