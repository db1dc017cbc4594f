package llm

import (
	"strings"
	"sync"

	"finai/backend/internal/llm/providers"
)

const GeminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

type Factory struct {
	mu        sync.Mutex
	instances map[string]Provider
}

func NewFactory() *Factory {
	return &Factory{instances: map[string]Provider{}}
}

// CreateProvider returns a cached adapter for config, or nil when the
// provider name is not supported.
func (f *Factory) CreateProvider(config *ProviderConfig) Provider {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := config.ProviderName + ":" + config.ModelName + ":" + config.BaseURL + ":" + config.APIKey
	if provider, ok := f.instances[key]; ok {
		return provider
	}

	cfg := *config
	var provider Provider
	switch strings.ToLower(cfg.ProviderName) {
	case "claude", "anthropic":
		provider = providers.NewClaudeProvider(&cfg)
	case "openai":
		provider = providers.NewOpenAIProvider(&cfg)
	case "cohere":
		provider = providers.NewCohereProvider(&cfg)
	case "google", "gemini":
		if cfg.BaseURL == "" {
			cfg.BaseURL = GeminiOpenAIBaseURL
		}
		cfg.ProviderName = "gemini"
		provider = providers.NewOpenAIProvider(&cfg)
	default:
		return nil
	}
	f.instances[key] = provider
	return provider
}
