package footer

import (
	"fmt"
	"math"
	"strings"

	"github.com/tsawler/mysouku/model"
)

// PolicyConfig holds the thresholds of the decision policy.
type PolicyConfig struct {
	// LowConfidence is the confidence below which the band is widened.
	// Default: 60
	LowConfidence int `yaml:"low_confidence" validate:"gte=0,lte=100"`

	// WidenMM is added to the height of a low-confidence decision.
	// Default: 10
	WidenMM float64 `yaml:"widen_mm" validate:"gte=0"`

	// MinLowConfidenceMM is the smallest height of a low-confidence decision.
	// Default: 30
	MinLowConfidenceMM float64 `yaml:"min_low_confidence_mm" validate:"gte=10,lte=80"`
}

// DefaultPolicyConfig returns the calibrated policy thresholds.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		LowConfidence:      60,
		WidenMM:            10,
		MinLowConfidenceMM: 30,
	}
}

// Policy reduces keyword and advisor candidates to a single decision.
type Policy struct {
	config PolicyConfig
}

// NewPolicy creates a policy with default thresholds.
func NewPolicy() *Policy {
	return NewPolicyWithConfig(DefaultPolicyConfig())
}

// NewPolicyWithConfig creates a policy with custom thresholds.
func NewPolicyWithConfig(config PolicyConfig) *Policy {
	return &Policy{config: config}
}

// Decide starts from the keyword candidate and adopts the advice only when
// its confidence is strictly higher. A result below the low-confidence
// threshold is widened. The returned height is always within the allowed
// range. advice may be nil.
func (p *Policy) Decide(keyword model.FooterCandidate, advice *model.FooterCandidate) model.FooterDecision {
	selected := keyword
	var notes []string

	switch {
	case advice == nil:
		notes = append(notes, fmt.Sprintf("keyword candidate %.1fmm@%d (no advice)", keyword.HeightMM, keyword.Confidence))
	case advice.Confidence > keyword.Confidence:
		selected = *advice
		selected.Source = model.SourceHeuristic
		notes = append(notes, fmt.Sprintf("advice %d beats keyword %d", advice.Confidence, keyword.Confidence))
	default:
		notes = append(notes, fmt.Sprintf("keyword %d kept over advice %d", keyword.Confidence, advice.Confidence))
	}

	height := selected.HeightMM
	if selected.Confidence < p.config.LowConfidence {
		widened := math.Max(height+p.config.WidenMM, p.config.MinLowConfidenceMM)
		notes = append(notes, fmt.Sprintf("low confidence %d: widened %.1fmm to %.1fmm", selected.Confidence, height, widened))
		height = widened
	}

	clamped := model.ClampHeightMM(height)
	if clamped != height {
		notes = append(notes, fmt.Sprintf("clamped %.1fmm to %.1fmm", height, clamped))
	}

	return model.FooterDecision{
		HeightMM:   clamped,
		Confidence: model.ClampConfidence(selected.Confidence),
		Source:     selected.Source,
		Rationale:  selected.Source.String() + ": " + strings.Join(notes, "; "),
	}
}
