package llm

import (
	"testing"

	"github.com/richinex/staxchange/model"
)

func TestParseProviderType(t *testing.T) {
	cases := map[string]ProviderType{
		"openrouter": ProviderOpenRouter,
		"OR":         ProviderOpenRouter,
		"openai":     ProviderOpenAI,
		"gpt":        ProviderOpenAI,
		"Claude":     ProviderAnthropic,
		"deepseek":   ProviderDeepSeek,
		"google":     ProviderGemini,
	}
	for in, want := range cases {
		got, err := ParseProviderType(in)
		if err != nil {
			t.Errorf("ParseProviderType(%q): unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseProviderType("mystery"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestProviderTypeRoundTrip(t *testing.T) {
	for _, p := range []ProviderType{ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic, ProviderDeepSeek, ProviderGemini} {
		parsed, err := ParseProviderType(p.String())
		if err != nil {
			t.Fatalf("%v: %v", p, err)
		}
		if parsed != p {
			t.Errorf("round trip %v -> %q -> %v", p, p.String(), parsed)
		}
		if p.EnvVar() == "" || p.DefaultModel() == "" {
			t.Errorf("%v: missing env var or default model", p)
		}
	}
}

func TestFromEnvMissingKeyIsConfigurationError(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := ProviderOpenRouter.FromEnv()
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if !model.IsConfiguration(err) {
		t.Errorf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestAPIKeyEmptyIsConfigurationError(t *testing.T) {
	_, err := ProviderAnthropic.APIKey("")
	if !model.IsConfiguration(err) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}

func TestBuilderDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	p, err := ProviderOpenRouter.FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "openrouter" {
		t.Errorf("expected name openrouter, got %q", p.Name())
	}
	if p.Model() != ModelOpenAIGPT4oMini {
		t.Errorf("expected default model %q, got %q", ModelOpenAIGPT4oMini, p.Model())
	}

	op, ok := p.(*OpenAIProvider)
	if !ok {
		t.Fatalf("expected *OpenAIProvider, got %T", p)
	}
	if op.temperature != 0.2 {
		t.Errorf("expected default temperature 0.2, got %v", op.temperature)
	}
}

func TestBuilderCustomModel(t *testing.T) {
	p, err := ProviderDeepSeek.Model("deepseek-reasoner").MaxTokens(1024).Temperature(0).APIKey("ds-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "deepseek" || p.Model() != "deepseek-reasoner" {
		t.Errorf("unexpected provider: %s/%s", p.Name(), p.Model())
	}
}

func TestGeminiRejectsBaseURL(t *testing.T) {
	if _, err := ProviderGemini.BaseURL("http://localhost").APIKey("g-key"); err == nil {
		t.Error("expected error for gemini base URL override")
	}
}
