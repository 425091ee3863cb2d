// OpenRouter and DeepSeek providers: OpenAI-compatible endpoints.

package llm

import (
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	deepseekBaseURL   = "https://api.deepseek.com/v1"

	// OpenRouter attribution headers.
	openRouterReferer = "https://staxchange.ai"
	openRouterTitle   = "StaxChange AI Converter"
)

// NewOpenRouterProvider creates a provider talking to OpenRouter.
// An empty baseURL selects the public endpoint.
func NewOpenRouterProvider(apiKey, baseURL, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = openRouterBaseURL
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": openRouterReferer,
				"X-Title":      openRouterTitle,
			},
		},
	}
	return NewOpenAICompatibleProvider("openrouter", config, model, maxTokens, temperature)
}

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(apiKey, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL
	return NewOpenAICompatibleProvider("deepseek", config, model, maxTokens, temperature)
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
