package model

// PageStatus reports what happened to one page during conversion.
type PageStatus int

const (
	// PageOverlaid means the replacement band was composited onto the page.
	PageOverlaid PageStatus = iota
	// PageOriginal means compositing failed and the page was kept as-is.
	PageOriginal
)

func (s PageStatus) String() string {
	if s == PageOriginal {
		return "original"
	}
	return "overlaid"
}

// PageResult is the outcome for one page of a converted document.
type PageResult struct {
	Index  int        `json:"index"`
	Status PageStatus `json:"-"`
	// StatusText mirrors Status for JSON consumers.
	StatusText string         `json:"status"`
	Decision   FooterDecision `json:"decision"`
	// FontFallback is set when the band was rendered with the reduced
	// Latin-only font because no script-capable font was usable.
	FontFallback bool   `json:"font_fallback,omitempty"`
	Err          string `json:"error,omitempty"`
}

// ConvertedDocument is the ordered per-page outcome plus the final bytes.
type ConvertedDocument struct {
	ID       string           `json:"id"`
	Pages    []PageResult     `json:"pages"`
	Decision FooterDecision   `json:"decision"`
	Keyword  FooterCandidate  `json:"keyword_candidate"`
	Advice   *FooterCandidate `json:"advisor_candidate,omitempty"`
	Bytes    []byte           `json:"-"`
}

// OverlaidCount returns the number of pages that received the new band.
func (d *ConvertedDocument) OverlaidCount() int {
	n := 0
	for _, p := range d.Pages {
		if p.Status == PageOverlaid {
			n++
		}
	}
	return n
}
