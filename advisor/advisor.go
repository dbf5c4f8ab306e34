// Package advisor provides second-opinion footer height estimates.
//
// An [Advisor] reads a page's plain text and proposes a band height with a
// confidence. It is optional: when none is configured, or the configured
// one cannot be reached in time, the caller proceeds on keyword detection
// alone. A reply that arrives but cannot be understood is not an error; it
// becomes a low-confidence default candidate (see [ParseResponse]).
package advisor

import (
	"context"
	"errors"

	"github.com/tsawler/mysouku/model"
)

// ErrUnavailable reports that no advice could be obtained.
var ErrUnavailable = errors.New("advisor unavailable")

// Malformed-reply defaults.
const (
	MalformedHeightMM   = 30.0
	MalformedConfidence = 30
)

// Advisor proposes a footer band from a page's plain text.
type Advisor interface {
	Advise(ctx context.Context, pageText string) (*model.FooterCandidate, error)
}

// Static always returns the same candidate. It is useful for tests and for
// forcing a height from the command line.
type Static struct {
	Candidate model.FooterCandidate
}

// Advise returns a copy of the fixed candidate.
func (s Static) Advise(ctx context.Context, _ string) (*model.FooterCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	c := s.Candidate
	c.Source = model.SourceHeuristic
	c.HeightMM = model.ClampHeightMM(c.HeightMM)
	c.Confidence = model.ClampConfidence(c.Confidence)
	return &c, nil
}

// Func adapts a function to the Advisor interface.
type Func func(ctx context.Context, pageText string) (*model.FooterCandidate, error)

// Advise calls f.
func (f Func) Advise(ctx context.Context, pageText string) (*model.FooterCandidate, error) {
	return f(ctx, pageText)
}
