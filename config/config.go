// Package config loads the settings of the mysouku command and server from
// a YAML file and MYSOUKU_* environment variables.
//
// Precedence, lowest first: built-in defaults, the file, the environment.
// The result is validated before use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/tsawler/mysouku"
	"github.com/tsawler/mysouku/advisor"
	"github.com/tsawler/mysouku/footer"
	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/overlay"
	"github.com/tsawler/mysouku/profile"
	"github.com/tsawler/mysouku/reader"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MYSOUKU_"

// Config is the complete application configuration.
type Config struct {
	Log       LogConfig            `yaml:"log"`
	Converter ConverterConfig      `yaml:"converter"`
	Locator   footer.LocatorConfig `yaml:"locator"`
	Policy    footer.PolicyConfig  `yaml:"policy"`
	Overlay   overlay.Config       `yaml:"overlay"`
	Advisor   advisor.LLMConfig    `yaml:"advisor"`
	Reader    ReaderConfig         `yaml:"reader"`
	Profile   ProfileConfig        `yaml:"profile"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ConverterConfig holds the converter-wide limits.
type ConverterConfig struct {
	PerPage                bool          `yaml:"per_page"`
	MaxWorkers             int           `yaml:"max_workers" validate:"min=1,max=64"`
	MaxConcurrentDocuments int           `yaml:"max_concurrent_documents" validate:"min=1,max=64"`
	MaxInputBytes          int64         `yaml:"max_input_bytes" validate:"gte=0"`
	AdvisorTimeout         time.Duration `yaml:"advisor_timeout" validate:"gte=0"`
}

// ReaderConfig controls text extraction.
type ReaderConfig struct {
	FoldWidth   bool   `yaml:"fold_width"`
	OCR         bool   `yaml:"ocr"`
	OCRMinChars int    `yaml:"ocr_min_chars" validate:"gte=0"`
	OCRLanguage string `yaml:"ocr_language" validate:"required"`
}

// ProfileConfig selects where the broker profile is read from.
type ProfileConfig struct {
	// Store is one of file, sqlite or env.
	Store string `yaml:"store" validate:"oneof=file sqlite env"`
	// Path is the YAML file or the SQLite database.
	Path string `yaml:"path" validate:"required_unless=Store env"`
	// EnvVar holds the base64 JSON profile for the env store.
	EnvVar string `yaml:"env_var"`
}

// Default returns the built-in configuration.
func Default() *Config {
	conv := mysouku.NewDefaultConfig()
	ro := reader.DefaultOptions()
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Converter: ConverterConfig{
			MaxWorkers:             conv.MaxWorkers,
			MaxConcurrentDocuments: conv.MaxConcurrentDocuments,
			MaxInputBytes:          conv.MaxInputBytes,
			AdvisorTimeout:         conv.AdvisorTimeout,
		},
		Locator: conv.Locator,
		Policy:  conv.Policy,
		Overlay: conv.Overlay,
		Advisor: advisor.DefaultLLMConfig(),
		Reader: ReaderConfig{
			FoldWidth:   ro.FoldWidth,
			OCR:         ro.OCR,
			OCRMinChars: ro.OCRMinChars,
			OCRLanguage: ro.OCRLanguage,
		},
		Profile: ProfileConfig{
			Store:  "sqlite",
			Path:   "company.db",
			EnvVar: "COMPANY_DATA",
		},
	}
}

// Load reads the file at path over the defaults, applies the environment
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// ApplyEnv overrides fields from MYSOUKU_* variables found with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	strs := map[string]*string{
		"LOG_LEVEL":        &c.Log.Level,
		"LOG_FORMAT":       &c.Log.Format,
		"FONT_PATH":        &c.Overlay.FontPath,
		"ADVISOR_PROVIDER": &c.Advisor.Provider,
		"ADVISOR_MODEL":    &c.Advisor.Model,
		"OCR_LANGUAGE":     &c.Reader.OCRLanguage,
		"PROFILE_STORE":    &c.Profile.Store,
		"PROFILE_PATH":     &c.Profile.Path,
		"PROFILE_ENV_VAR":  &c.Profile.EnvVar,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_WORKERS":              &c.Converter.MaxWorkers,
		"MAX_CONCURRENT_DOCUMENTS": &c.Converter.MaxConcurrentDocuments,
	}
	for name, dst := range ints {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"PER_PAGE":        &c.Converter.PerPage,
		"OCR":             &c.Reader.OCR,
		"FOLD_WIDTH":      &c.Reader.FoldWidth,
		"USE_BUILTIN_CJK": &c.Overlay.UseBuiltinCJK,
	}
	for name, dst := range bools {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	if v, ok := get("MAX_INPUT_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_INPUT_BYTES: %w", EnvPrefix, err)
		}
		c.Converter.MaxInputBytes = n
	}

	durations := map[string]*time.Duration{
		"ADVISOR_TIMEOUT": &c.Converter.AdvisorTimeout,
	}
	for name, dst := range durations {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks every section against its constraints.
func (c *Config) Validate() error {
	logger.Debug("validating application config")
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ForConverter returns the converter configuration with adv as its
// advisor. adv may be nil.
func (c *Config) ForConverter(adv advisor.Advisor) *mysouku.Config {
	conv := mysouku.NewDefaultConfig()
	conv.Locator = c.Locator
	conv.Policy = c.Policy
	conv.Overlay = c.Overlay
	conv.Reader.FoldWidth = c.Reader.FoldWidth
	conv.Reader.OCR = c.Reader.OCR
	conv.Reader.OCRMinChars = c.Reader.OCRMinChars
	conv.Reader.OCRLanguage = c.Reader.OCRLanguage
	conv.Advisor = adv
	conv.AdvisorTimeout = c.Converter.AdvisorTimeout
	conv.PerPage = c.Converter.PerPage
	conv.MaxWorkers = c.Converter.MaxWorkers
	conv.MaxConcurrentDocuments = c.Converter.MaxConcurrentDocuments
	conv.MaxInputBytes = c.Converter.MaxInputBytes
	return conv
}

// NewAdvisor builds the configured language-model advisor. It returns nil
// without error when no provider is configured or its credentials are
// missing, since the converter works without one.
func (c *Config) NewAdvisor() (advisor.Advisor, error) {
	if c.Advisor.Provider == "" {
		return nil, nil
	}
	a, err := advisor.NewLLMAdvisor(c.Advisor)
	if err != nil {
		if advisor.IsUnavailable(err) {
			logger.Warn("advisor disabled", "provider", c.Advisor.Provider, "error", err)
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// OpenProfileStore opens the configured broker profile store.
func (c *Config) OpenProfileStore() (profile.Store, error) {
	return profile.Open(c.Profile.Store, c.Profile.Path, c.Profile.EnvVar)
}
