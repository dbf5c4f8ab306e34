package model

import (
	"fmt"
	"strings"
)

// Footer height bounds in millimetres. Every decision is clamped into this
// range before it is applied to a page.
const (
	MinFooterHeightMM = 10.0
	MaxFooterHeightMM = 80.0
)

// ClampHeightMM limits a footer height to [MinFooterHeightMM, MaxFooterHeightMM].
func ClampHeightMM(mm float64) float64 {
	if mm < MinFooterHeightMM {
		return MinFooterHeightMM
	}
	if mm > MaxFooterHeightMM {
		return MaxFooterHeightMM
	}
	return mm
}

// ClampConfidence limits a confidence score to [0, 100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// CandidateSource identifies the detector that produced a candidate.
type CandidateSource int

const (
	SourceKeyword CandidateSource = iota
	SourceHeuristic
)

func (s CandidateSource) String() string {
	if s == SourceHeuristic {
		return "heuristic"
	}
	return "keyword"
}

// MarshalText implements encoding.TextMarshaler so sources serialise by name.
func (s CandidateSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CandidateSource) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "keyword":
		*s = SourceKeyword
	case "heuristic":
		*s = SourceHeuristic
	default:
		return fmt.Errorf("unknown candidate source %q", string(b))
	}
	return nil
}

// FooterCandidate is one detector's proposal for the footer band.
type FooterCandidate struct {
	// TopBoundaryY is the lowest matched word's bottom edge in points, or 0
	// when the candidate was not derived from page geometry.
	TopBoundaryY float64 `json:"top_boundary_y"`

	// HeightMM is the proposed band height in millimetres.
	HeightMM float64 `json:"height_mm"`

	// Confidence is 0-100.
	Confidence int `json:"confidence"`

	Source CandidateSource `json:"source"`

	// Evidence lists the matched words or advisor notes behind the proposal.
	Evidence []string `json:"evidence,omitempty"`
}

// FooterDecision is the band height actually applied to the document.
type FooterDecision struct {
	HeightMM   float64         `json:"height_mm"`
	Confidence int             `json:"confidence"`
	Source     CandidateSource `json:"source"`
	Rationale  string          `json:"rationale"`
}

// HeightPoints returns the decided height in PDF points.
func (d FooterDecision) HeightPoints() float64 {
	return MMToPoints(d.HeightMM)
}
