// Package overlay replaces the footer band of PDF pages with a broker's
// contact block.
//
// The band is an opaque rectangle spanning the page width from the bottom
// edge, drawn over the original content, with the broker identity laid out
// in three columns on top of it:
//
//	| license / company (35%) | 〒address / TEL・FAX (45%) | email / web (20%) |
//
// Pages are modified with a PDF incremental update. The original file is
// kept byte-for-byte as a prefix and each overlaid page gets a new revision
// of its page object whose content array wraps the original streams in a
// q/Q pair and appends the overlay stream. Original content streams are
// never rewritten, so everything above the band renders exactly as before,
// and a page whose overlay cannot be built simply keeps its old revision.
//
// # Fonts
//
// Text is shown with the first font in the [FontSet] that can render every
// line: a configured TrueType file (embedded), then the built-in Japanese
// CID font (not embedded, resolved by the viewer), then Helvetica. When no
// font covers the text, only the company name is rendered, reduced to the
// characters Helvetica can show.
package overlay
