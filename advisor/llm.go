package advisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/model"
)

// DefaultPrompt asks the model for a JSON footer estimate. The page text is
// appended after it.
const DefaultPrompt = `You are looking at the plain text of one page of a Japanese real-estate listing flyer (マイソク).
The bottom of the page carries a band with the issuing broker's identity: company name, license number (宅建業免許 / 知事 / 大臣),
address, TEL/FAX, and the transaction role (仲介/媒介/代理/売主).
Estimate how tall that band is, in millimetres measured from the bottom edge of the page.
Reply with a single JSON object and nothing else:
{"height_mm": <number between 10 and 80>, "confidence": <integer 0-100>, "evidence": [<short strings quoting the lines you used>]}

Page text:
`

// LLMConfig configures the language-model advisor.
type LLMConfig struct {
	// Provider is one of openai, anthropic, ollama, mistral.
	Provider string `yaml:"provider" validate:"omitempty,oneof=openai anthropic ollama mistral"`
	// Model is the provider-specific model name.
	Model string `yaml:"model"`
	// Timeout bounds a single call; an expired call counts as unavailable.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// MaxTokens limits the reply length. Zero leaves the provider default.
	MaxTokens int `yaml:"max_tokens" validate:"gte=0"`
	// MaxInputRunes truncates the page text sent to the model.
	MaxInputRunes int `yaml:"max_input_runes" validate:"gte=0"`
	// Prompt overrides DefaultPrompt.
	Prompt string `yaml:"prompt"`
}

// DefaultLLMConfig returns a configuration with no provider selected.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Timeout:       20 * time.Second,
		MaxTokens:     256,
		MaxInputRunes: 4000,
	}
}

// LLMAdvisor asks a language model for the footer height.
type LLMAdvisor struct {
	llm    llms.Model
	config LLMConfig
}

// NewLLMAdvisor creates the provider client named in config. Credentials and
// endpoints come from the environment (OPENAI_API_KEY, OPENAI_BASE_URL,
// ANTHROPIC_API_KEY, MISTRAL_API_KEY, OLLAMA_HOST). A missing credential is
// reported as ErrUnavailable.
func NewLLMAdvisor(config LLMConfig) (*LLMAdvisor, error) {
	var (
		m   llms.Model
		err error
	)

	switch strings.ToLower(config.Provider) {
	case "openai":
		m, err = createOpenAIClient(config)
	case "anthropic":
		m, err = createAnthropicClient(config)
	case "ollama":
		m, err = createOllamaClient(config)
	case "mistral":
		m, err = createMistralClient(config)
	case "":
		return nil, fmt.Errorf("%w: no provider configured", ErrUnavailable)
	default:
		return nil, fmt.Errorf("unsupported advisor provider: %s", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating advisor client: %w", err)
	}

	logger.Info("advisor initialised", "provider", config.Provider, "model", config.Model)
	return NewLLMAdvisorWithModel(m, config), nil
}

// NewLLMAdvisorWithModel wraps an already constructed model.
func NewLLMAdvisorWithModel(m llms.Model, config LLMConfig) *LLMAdvisor {
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	return &LLMAdvisor{llm: m, config: config}
}

// Advise sends the page text to the model. Transport failures and timeouts
// return an error wrapping ErrUnavailable. A reply that is not the expected
// JSON yields the malformed default candidate with a nil error.
func (a *LLMAdvisor) Advise(ctx context.Context, pageText string) (*model.FooterCandidate, error) {
	if a == nil || a.llm == nil {
		return nil, ErrUnavailable
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	prompt := a.config.Prompt + truncateRunes(pageText, a.config.MaxInputRunes)

	opts := []llms.CallOption{llms.WithJSONMode(), llms.WithTemperature(0)}
	if a.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(a.config.MaxTokens))
	}

	start := time.Now()
	resp, err := a.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, opts...)
	if err != nil {
		logger.Warn("advisor call failed", "provider", a.config.Provider, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		logger.Warn("advisor returned no choices", "provider", a.config.Provider)
		c := ParseResponse("")
		return &c, nil
	}

	c := ParseResponse(resp.Choices[0].Content)
	logger.Debug("advisor replied",
		"provider", a.config.Provider,
		"height_mm", c.HeightMM,
		"confidence", c.Confidence,
		"elapsed", time.Since(start))
	return &c, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func createOpenAIClient(config LLMConfig) (llms.Model, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is not set", ErrUnavailable)
	}
	opts := []openai.Option{
		openai.WithModel(config.Model),
		openai.WithToken(apiKey),
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	return openai.New(opts...)
}

func createAnthropicClient(config LLMConfig) (llms.Model, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Anthropic API key is not set", ErrUnavailable)
	}
	return anthropic.New(
		anthropic.WithModel(config.Model),
		anthropic.WithToken(apiKey),
	)
}

func createOllamaClient(config LLMConfig) (llms.Model, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://127.0.0.1:11434"
	}
	return ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(host),
		ollama.WithFormat("json"),
	)
}

func createMistralClient(config LLMConfig) (llms.Model, error) {
	apiKey := os.Getenv("MISTRAL_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Mistral API key is not set", ErrUnavailable)
	}
	return mistral.New(
		mistral.WithModel(config.Model),
		mistral.WithAPIKey(apiKey),
	)
}

// IsUnavailable reports whether err means no advice could be obtained.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
