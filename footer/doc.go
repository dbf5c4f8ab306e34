// Package footer decides how tall the broker footer band of a flyer is.
//
// Two detectors feed one policy. [KeywordLocator] scans a page's words for
// terms that only appear in a broker's contact block (company suffixes,
// license wording, TEL/FAX labels, transaction roles) and sizes the band
// so it reaches the highest of them. An optional heuristic advisor
// supplies a second opinion. [Policy] picks between the two and widens
// low-confidence results so a partially detected footer is still covered.
//
//	loc := footer.NewKeywordLocator()
//	cand := loc.Locate(idx, pageHeight)
//	decision := footer.NewPolicy().Decide(cand, advice)
package footer
