// Package reader loads a flyer PDF and exposes what the footer pipeline
// needs from it: page boxes, positioned words, plain text, and the raw page
// objects an incremental update rewrites.
//
// Two parsers cooperate. pdfcpu owns the document structure (page tree,
// inherited attributes, trailer), and ledongthuc/pdf interprets content
// streams into positioned glyph runs that [text.Merge] turns into words.
// The structure is read as stored and never repaired, so the page objects
// handed to an update are the ones in the file. Pages whose /Contents is
// an array are read through a private revision that joins their streams.
//
// # Opening Documents
//
//	doc, err := reader.Open(data, reader.DefaultOptions())
//	if err != nil {
//	    return err // wraps ErrUnparseable, ErrNoPages or ErrEncrypted
//	}
//	page, err := doc.Page(0)
//
// Word boxes on a [Page] are relative to the page's visible box, so a word
// at Y=0 sits on the visible bottom edge regardless of the MediaBox origin.
//
// # Scanned Pages
//
// When [Options.OCR] is set and a page's text layer is shorter than
// [Options.OCRMinChars], the largest image on the page is recognised with
// the ocr package and its words are mapped onto the page box.
package reader
