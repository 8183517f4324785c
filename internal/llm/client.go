package llm

import (
	"context"
	"fmt"

	"github.com/syui/aigpt/internal/config"
)

// Client is the interface for text-generation providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Response, error)
}

// Response holds the result of a completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// NewClient creates an LLM client based on the config provider setting.
// The returned client is wrapped in a circuit breaker and rate limiter.
func NewClient(cfg config.LLMConfig) (Client, error) {
	var inner Client
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or config")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		inner = NewAnthropic(cfg.AnthropicKey, model)
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.OllamaModel
		if model == "" {
			model = "qwen3"
		}
		inner = NewOllama(url, model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	return Guard(inner), nil
}
