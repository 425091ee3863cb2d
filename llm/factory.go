// LLM Provider Factory - builder API for creating LLM providers.
//
// Quick Start:
//
//	// Defaults, API key from environment
//	p, err := llm.ProviderOpenRouter.FromEnv()
//
//	// Full configuration
//	p, err := llm.ProviderAnthropic.
//	    Model(llm.ModelAnthropicClaudeSonnet4).
//	    MaxTokens(8192).
//	    Temperature(0.2).
//	    FromEnv()
//
//	// Explicit API key and endpoint (self-hosted gateways, tests)
//	p, err := llm.ProviderOpenAI.Model("gpt-4o-mini").BaseURL(srv.URL).APIKey("sk-...")

package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"github.com/richinex/staxchange/model"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenRouter is OpenRouter's OpenAI-compatible gateway.
	ProviderOpenRouter ProviderType = iota
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenRouter:
		return "openrouter"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenRouter, ProviderOpenAI:
		return ModelOpenAIGPT4oMini
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	case ProviderDeepSeek:
		return ModelDeepSeekChat
	case ProviderGemini:
		return ModelGeminiFlash25
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "openrouter", "or":
		return ProviderOpenRouter, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// FromEnv creates a provider with defaults, reading API key from environment.
func (p ProviderType) FromEnv() (Provider, error) {
	return NewProviderBuilder(p).FromEnv()
}

// Model starts configuring this provider with a specific model.
func (p ProviderType) Model(model string) *ProviderBuilder {
	return NewProviderBuilder(p).Model(model)
}

// BaseURL starts configuring this provider with a custom endpoint.
func (p ProviderType) BaseURL(url string) *ProviderBuilder {
	return NewProviderBuilder(p).BaseURL(url)
}

// APIKey creates a provider with an explicit API key (uses defaults for everything else).
func (p ProviderType) APIKey(key string) (Provider, error) {
	return NewProviderBuilder(p).APIKey(key)
}

// ProviderBuilder is a builder for configuring LLM providers.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	baseURL      string
	maxTokens    uint32
	temperature  *float32
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{
		providerType: providerType,
	}
}

// Model sets the model to use.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// BaseURL overrides the API endpoint. Not supported for Gemini.
func (b *ProviderBuilder) BaseURL(url string) *ProviderBuilder {
	b.baseURL = url
	return b
}

// MaxTokens sets maximum tokens for responses.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets temperature (0.0 = deterministic, 1.0 = creative).
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = &temp
	return b
}

// FromEnv builds the provider, reading API key from environment.
// A missing key is a *model.ConfigurationError.
func (b *ProviderBuilder) FromEnv() (Provider, error) {
	envVar := b.providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, &model.ConfigurationError{Key: envVar}
	}
	return b.build(apiKey)
}

// APIKey builds the provider with an explicit API key.
// An empty key is a *model.ConfigurationError.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	if key == "" {
		return nil, &model.ConfigurationError{Key: b.providerType.EnvVar()}
	}
	return b.build(key)
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	modelName := b.model
	if modelName == "" {
		modelName = b.providerType.DefaultModel()
	}

	maxTokens := b.maxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	temperature := float32(0.2) // conversion favours determinism
	if b.temperature != nil {
		temperature = *b.temperature
	}

	switch b.providerType {
	case ProviderOpenRouter:
		return NewOpenRouterProvider(apiKey, b.baseURL, modelName, maxTokens, temperature), nil
	case ProviderOpenAI:
		config := openai.DefaultConfig(apiKey)
		if b.baseURL != "" {
			config.BaseURL = b.baseURL
		}
		return NewOpenAICompatibleProvider("openai", config, modelName, maxTokens, temperature), nil
	case ProviderAnthropic:
		var opts []option.RequestOption
		if b.baseURL != "" {
			opts = append(opts, option.WithBaseURL(b.baseURL))
		}
		return NewAnthropicProvider(apiKey, modelName, maxTokens, temperature, opts...), nil
	case ProviderDeepSeek:
		if b.baseURL != "" {
			config := openai.DefaultConfig(apiKey)
			config.BaseURL = b.baseURL
			return NewOpenAICompatibleProvider("deepseek", config, modelName, maxTokens, temperature), nil
		}
		return NewDeepSeekProvider(apiKey, modelName, maxTokens, temperature), nil
	case ProviderGemini:
		if b.baseURL != "" {
			return nil, fmt.Errorf("gemini: custom base URL is not supported")
		}
		return NewGeminiProvider(apiKey, modelName, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// Model identifier constants.
const (
	// ModelOpenAIGPT4oMini is the default conversion model.
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	// ModelOpenAIGPT4o is GPT-4o.
	ModelOpenAIGPT4o = "gpt-4o"

	// ModelAnthropicClaudeSonnet4 is Claude Sonnet 4: Balanced performance.
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"

	// ModelDeepSeekChat is DeepSeek's general chat model.
	ModelDeepSeekChat = "deepseek-chat"

	// ModelGeminiFlash25 is Gemini 2.5 Flash.
	ModelGeminiFlash25 = "gemini-2.5-flash"
)
