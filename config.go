package mysouku

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tsawler/mysouku/advisor"
	"github.com/tsawler/mysouku/footer"
	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/overlay"
	"github.com/tsawler/mysouku/reader"
)

// Config controls a Converter.
type Config struct {
	Locator footer.LocatorConfig
	Policy  footer.PolicyConfig
	Overlay overlay.Config
	Reader  reader.Options

	// Advisor is consulted for a second opinion on the band height. Nil
	// disables it.
	Advisor advisor.Advisor

	// AdvisorTimeout bounds one advisor call. Zero leaves the advisor's own
	// limit in force.
	AdvisorTimeout time.Duration `validate:"gte=0"`

	// PerPage decides the band height for every page separately instead of
	// applying the first page's decision to all pages.
	PerPage bool

	// MaxWorkers bounds the pages patched in parallel per document.
	MaxWorkers int `validate:"min=1,max=64"`

	// MaxConcurrentDocuments bounds the conversions running at once on one
	// Converter.
	MaxConcurrentDocuments int `validate:"min=1,max=64"`

	// MaxInputBytes rejects larger inputs. Zero disables the limit.
	MaxInputBytes int64 `validate:"gte=0"`

	// Logger, when set, replaces the package-wide log sink.
	Logger logger.LogFunc
}

// NewDefaultConfig returns the calibrated default configuration with no
// advisor.
func NewDefaultConfig() *Config {
	return &Config{
		Locator:                footer.DefaultLocatorConfig(),
		Policy:                 footer.DefaultPolicyConfig(),
		Overlay:                overlay.DefaultConfig(),
		Reader:                 reader.DefaultOptions(),
		AdvisorTimeout:         20 * time.Second,
		MaxWorkers:             4,
		MaxConcurrentDocuments: 4,
		MaxInputBytes:          16 << 20,
	}
}

// Validate checks the configuration against its constraints.
func (cfg *Config) Validate() error {
	logger.Debug("validating converter config")
	validate := validator.New()
	return validate.Struct(cfg)
}
