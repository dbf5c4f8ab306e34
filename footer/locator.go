package footer

import (
	"math"

	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/text"
)

// LocatorConfig holds the calibration constants of the keyword locator.
type LocatorConfig struct {
	// Keywords searched for on the page.
	// Default: DefaultKeywords
	Keywords []string `yaml:"keywords" validate:"min=1,dive,required"`

	// MarginMM is added above the highest matched word.
	// Default: 5
	MarginMM float64 `yaml:"margin_mm" validate:"gte=0"`

	// BaseConfidence is the confidence of a single match before the
	// per-match step is added.
	// Default: 60
	BaseConfidence int `yaml:"base_confidence" validate:"gte=0,lte=100"`

	// ConfidenceStep is added for every matched word.
	// Default: 10
	ConfidenceStep int `yaml:"confidence_step" validate:"gte=0"`

	// MaxConfidence caps the keyword confidence.
	// Default: 95
	MaxConfidence int `yaml:"max_confidence" validate:"gte=0,lte=100"`

	// FallbackHeightMM and FallbackConfidence are used when nothing matches.
	// Default: 30mm at confidence 40
	FallbackHeightMM   float64 `yaml:"fallback_height_mm" validate:"gte=10,lte=80"`
	FallbackConfidence int     `yaml:"fallback_confidence" validate:"gte=0,lte=100"`
}

// DefaultLocatorConfig returns the calibrated locator configuration.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		Keywords:           Keywords(),
		MarginMM:           5,
		BaseConfidence:     60,
		ConfidenceStep:     10,
		MaxConfidence:      95,
		FallbackHeightMM:   30,
		FallbackConfidence: 40,
	}
}

// KeywordLocator proposes a footer band from keyword positions.
type KeywordLocator struct {
	config LocatorConfig
}

// NewKeywordLocator creates a locator with default configuration.
func NewKeywordLocator() *KeywordLocator {
	return NewKeywordLocatorWithConfig(DefaultLocatorConfig())
}

// NewKeywordLocatorWithConfig creates a locator with custom configuration.
func NewKeywordLocatorWithConfig(config LocatorConfig) *KeywordLocator {
	if len(config.Keywords) == 0 {
		config.Keywords = Keywords()
	}
	return &KeywordLocator{config: config}
}

// Config returns the locator configuration.
func (l *KeywordLocator) Config() LocatorConfig {
	return l.config
}

// Locate proposes a band reaching from the page bottom to the lowest bottom
// edge among matched words, plus the margin, clamped to the allowed range.
// pageHeight is the height of the page in points, in the same space as the
// word boxes.
func (l *KeywordLocator) Locate(idx *text.Index, pageHeight float64) model.FooterCandidate {
	matches := idx.WordsContaining(l.config.Keywords)
	if len(matches) == 0 {
		return model.FooterCandidate{
			HeightMM:   model.ClampHeightMM(l.config.FallbackHeightMM),
			Confidence: l.config.FallbackConfidence,
			Source:     model.SourceKeyword,
		}
	}

	top := math.Inf(1)
	evidence := make([]string, 0, len(matches))
	for _, m := range matches {
		if y := m.Word.Box.Bottom(); y < top {
			top = y
		}
		evidence = append(evidence, m.Word.Text)
	}

	heightMM := model.PointsToMM(pageHeight-top) + l.config.MarginMM

	confidence := l.config.BaseConfidence + l.config.ConfidenceStep*len(matches)
	if confidence > l.config.MaxConfidence {
		confidence = l.config.MaxConfidence
	}

	return model.FooterCandidate{
		TopBoundaryY: top,
		HeightMM:     model.ClampHeightMM(heightMM),
		Confidence:   confidence,
		Source:       model.SourceKeyword,
		Evidence:     evidence,
	}
}
