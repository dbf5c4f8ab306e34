package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/mysouku/advisor"
	"github.com/tsawler/mysouku/model"
	"github.com/tsawler/mysouku/profile"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.35, cfg.Overlay.LeftColumnEnd)
	assert.Equal(t, 0.80, cfg.Overlay.CenterColumnEnd)
	assert.Equal(t, 60, cfg.Policy.LowConfidence)
	assert.Equal(t, 5.0, cfg.Locator.MarginMM)
	assert.Equal(t, int64(16<<20), cfg.Converter.MaxInputBytes)
	assert.Equal(t, "sqlite", cfg.Profile.Store)
}

func TestParse_OverridesDefaults(t *testing.T) {
	data := []byte(`
log:
  level: debug
converter:
  per_page: true
  max_workers: 8
  advisor_timeout: 5s
locator:
  margin_mm: 7
overlay:
  font_path: /fonts/NotoSansJP.ttf
  fill_color: {r: 1, g: 1, b: 0.9}
profile:
  store: file
  path: broker.yaml
`)
	cfg := Default()
	require.NoError(t, Parse(data, cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Converter.PerPage)
	assert.Equal(t, 8, cfg.Converter.MaxWorkers)
	assert.Equal(t, 5*time.Second, cfg.Converter.AdvisorTimeout)
	assert.Equal(t, 7.0, cfg.Locator.MarginMM)
	assert.Equal(t, "/fonts/NotoSansJP.ttf", cfg.Overlay.FontPath)
	assert.Equal(t, 0.9, cfg.Overlay.FillColor.B)
	assert.Equal(t, "file", cfg.Profile.Store)

	// Untouched sections keep their defaults.
	assert.Equal(t, 4, cfg.Converter.MaxConcurrentDocuments)
	assert.NotEmpty(t, cfg.Locator.Keywords)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	err := Parse([]byte("converter:\n  max_wrokers: 3\n"), Default())
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"MYSOUKU_LOG_LEVEL":        "warn",
		"MYSOUKU_MAX_WORKERS":      "2",
		"MYSOUKU_PER_PAGE":         "true",
		"MYSOUKU_ADVISOR_PROVIDER": "ollama",
		"MYSOUKU_ADVISOR_TIMEOUT":  "750ms",
		"MYSOUKU_MAX_INPUT_BYTES":  "1024",
		"MYSOUKU_PROFILE_STORE":    "env",
		"MYSOUKU_FONT_PATH":        "   ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Converter.MaxWorkers)
	assert.True(t, cfg.Converter.PerPage)
	assert.Equal(t, "ollama", cfg.Advisor.Provider)
	assert.Equal(t, 750*time.Millisecond, cfg.Converter.AdvisorTimeout)
	assert.Equal(t, int64(1024), cfg.Converter.MaxInputBytes)
	assert.Equal(t, "env", cfg.Profile.Store)
	assert.Empty(t, cfg.Overlay.FontPath, "blank values are ignored")
}

func TestApplyEnv_BadValues(t *testing.T) {
	tests := map[string]string{
		"MYSOUKU_MAX_WORKERS":     "many",
		"MYSOUKU_PER_PAGE":        "sometimes",
		"MYSOUKU_ADVISOR_TIMEOUT": "soon",
		"MYSOUKU_MAX_INPUT_BYTES": "1MB",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			err := Default().ApplyEnv(envMap(map[string]string{k: v}))
			assert.Error(t, err)
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"workers", func(c *Config) { c.Converter.MaxWorkers = 0 }},
		{"store", func(c *Config) { c.Profile.Store = "redis" }},
		{"store path", func(c *Config) { c.Profile.Path = "" }},
		{"provider", func(c *Config) { c.Advisor.Provider = "acme" }},
		{"columns", func(c *Config) { c.Overlay.CenterColumnEnd = 0.1 }},
		{"colour", func(c *Config) { c.Overlay.TextColor.R = 2 }},
		{"keywords", func(c *Config) { c.Locator.Keywords = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Profile.Store = "env"
	cfg.Profile.Path = ""
	assert.NoError(t, cfg.Validate(), "env store needs no path")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mysouku.yaml")
	require.NoError(t, os.WriteFile(path, []byte("converter:\n  max_workers: 3\n"), 0o600))
	t.Setenv("MYSOUKU_MAX_CONCURRENT_DOCUMENTS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Converter.MaxWorkers)
	assert.Equal(t, 2, cfg.Converter.MaxConcurrentDocuments)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestForConverter(t *testing.T) {
	cfg := Default()
	cfg.Converter.PerPage = true
	cfg.Converter.MaxWorkers = 6
	cfg.Reader.FoldWidth = true
	adv := advisor.Static{Candidate: model.FooterCandidate{HeightMM: 20, Confidence: 70}}

	conv := cfg.ForConverter(adv)
	require.NoError(t, conv.Validate())
	assert.True(t, conv.PerPage)
	assert.Equal(t, 6, conv.MaxWorkers)
	assert.True(t, conv.Reader.FoldWidth)
	assert.Equal(t, cfg.Converter.MaxInputBytes, conv.MaxInputBytes)
	assert.Equal(t, adv, conv.Advisor)
}

func TestNewAdvisor(t *testing.T) {
	cfg := Default()
	a, err := cfg.NewAdvisor()
	require.NoError(t, err)
	assert.Nil(t, a)

	t.Setenv("OPENAI_API_KEY", "")
	cfg.Advisor.Provider = "openai"
	a, err = cfg.NewAdvisor()
	require.NoError(t, err, "missing credentials disable the advisor")
	assert.Nil(t, a)
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(Default())
	require.NoError(t, err)
	assert.Contains(t, string(out), "max_workers: 4")
	assert.Contains(t, string(out), "store: sqlite")
}

func TestOpenProfileStore(t *testing.T) {
	cfg := Default()
	cfg.Profile.Store = "file"
	cfg.Profile.Path = filepath.Join(t.TempDir(), "profile.yaml")

	s, err := cfg.OpenProfileStore()
	require.NoError(t, err)
	assert.IsType(t, &profile.FileStore{}, s)
}
