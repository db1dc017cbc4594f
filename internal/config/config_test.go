package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finai/backend/internal/crypto"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LLM_MAX_DELAY", "")
	t.Setenv("TRUST_PROXY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("COHERE_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.LLMMaxRetries)
	assert.Equal(t, 2*time.Second, cfg.LLMBaseDelay)
	assert.Equal(t, time.Minute, cfg.LLMMaxDelay)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, 2, cfg.SentimentWorkers)
	assert.Equal(t, 24*time.Hour, cfg.EducationCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.ProviderHealthInterval)
	assert.Equal(t, 30*time.Second, cfg.MarketTickInterval)
	assert.Empty(t, cfg.Providers())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_MAX_RETRIES", "5")
	t.Setenv("LLM_BASE_DELAY", "250ms")
	t.Setenv("MARKET_TICK_INTERVAL", "1m")
	t.Setenv("LLM_MAX_DELAY", "15s")
	t.Setenv("TRUST_PROXY", "true")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("COHERE_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.LLMMaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.LLMBaseDelay)
	assert.Equal(t, time.Minute, cfg.MarketTickInterval)
	assert.Equal(t, 15*time.Second, cfg.LLMMaxDelay)
	assert.True(t, cfg.TrustProxy)
	providers := cfg.Providers()
	require.Len(t, providers, 1)
	assert.Equal(t, "key", providers[0].APIKey)
}

func TestProvidersOrder(t *testing.T) {
	cfg := Config{GeminiAPIKey: "g", CohereAPIKey: "c", AnthropicAPIKey: "a"}
	providers := cfg.Providers()
	require.Len(t, providers, 3)
	assert.Equal(t, "gemini", providers[0].ProviderName)
	assert.Equal(t, "anthropic", providers[1].ProviderName)
	assert.Equal(t, "cohere", providers[2].ProviderName)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.NoError(t, Config{DatabaseURL: "postgres://x", JWTSecret: "s"}.Validate())
	err := Config{DatabaseURL: "postgres://x", JWTSecret: "s", MasterKey: "short"}.Validate()
	var keyErr *crypto.KeyError
	assert.True(t, errors.As(err, &keyErr))
}
