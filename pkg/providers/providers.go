// Package providers implements LLM client providers for various backends.
package providers

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/vizagent-go/pkg/core"
)

// Provider identifies an LLM provider.
type Provider string

const (
	Anthropic Provider = "anthropic"
	DeepSeek  Provider = "deepseek"
	OpenAI    Provider = "openai"
)

// Client defines the interface for a chat completion backend. One blocking
// call per request; no streaming.
type Client interface {
	Complete(ctx context.Context, messages []core.Message) (core.LLMResponse, error)
}

// SupportedModels maps model names to their providers.
var SupportedModels = map[string]Provider{
	// DeepSeek models
	"deepseek-chat":  DeepSeek,
	"deepseek-coder": DeepSeek,
	// OpenAI models
	"gpt-5":      OpenAI,
	"gpt-5-mini": OpenAI,
	// Anthropic models
	"claude-sonnet-4-20250514": Anthropic,
	"claude-opus-4-20250514":   Anthropic,
}

// GetProvider returns the provider for a given model name.
// Returns DeepSeek as default for unknown models.
func GetProvider(model string) Provider {
	if p, ok := SupportedModels[model]; ok {
		return p
	}
	return DeepSeek
}

// EnvKey returns the environment variable name for the provider's API key.
func (p Provider) EnvKey() string {
	switch p {
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	case OpenAI:
		return "OPENAI_API_KEY"
	default:
		return "DEEPSEEK_API_KEY"
	}
}

// ForModel creates a client for the given model, dispatching on the
// model-name table.
func ForModel(model, apiKey string, verbose bool) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("providers: api key is required for model %s", model)
	}
	switch GetProvider(model) {
	case Anthropic:
		return NewAnthropicClient(apiKey, model), nil
	case OpenAI:
		return NewOpenAIClient(apiKey, model, verbose), nil
	default:
		return NewDeepSeekClient(apiKey, model, verbose), nil
	}
}
