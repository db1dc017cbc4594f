package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"finai/backend/internal/crypto"
	"finai/backend/internal/llm/contract"
)

type Config struct {
	DatabaseURL        string
	Port               string
	JWTSecret          string
	FrontendOrigin     string
	RedisURL           string
	MasterKey          string
	LogLevel           string
	LogFormat          string
	RateLimitPerMinute int

	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	CohereAPIKey    string
	CohereModel     string

	LLMMaxRetries int
	LLMBaseDelay  time.Duration
	LLMMaxDelay   time.Duration

	// TrustProxy makes the rate limiter key clients by X-Forwarded-For.
	TrustProxy bool

	SentimentWorkers       int
	EducationCacheTTL      time.Duration
	ProviderHealthInterval time.Duration
	MarketTickInterval     time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		Port:               v.GetString("PORT"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		FrontendOrigin:     v.GetString("FRONTEND_ORIGIN"),
		RedisURL:           v.GetString("REDIS_URL"),
		MasterKey:          v.GetString("MASTER_KEY"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		GeminiAPIKey:       v.GetString("GEMINI_API_KEY"),
		GeminiModel:        v.GetString("GEMINI_MODEL"),
		GeminiBaseURL:      v.GetString("GEMINI_BASE_URL"),
		OpenAIAPIKey:       v.GetString("OPENAI_API_KEY"),
		OpenAIModel:        v.GetString("OPENAI_MODEL"),
		AnthropicAPIKey:    v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:     v.GetString("ANTHROPIC_MODEL"),
		CohereAPIKey:       v.GetString("COHERE_API_KEY"),
		CohereModel:        v.GetString("COHERE_MODEL"),
		LLMMaxRetries:      v.GetInt("LLM_MAX_RETRIES"),
		LLMBaseDelay:       v.GetDuration("LLM_BASE_DELAY"),
		LLMMaxDelay:        v.GetDuration("LLM_MAX_DELAY"),
		TrustProxy:         v.GetBool("TRUST_PROXY"),

		SentimentWorkers:       v.GetInt("SENTIMENT_WORKERS"),
		EducationCacheTTL:      v.GetDuration("EDUCATION_CACHE_TTL"),
		ProviderHealthInterval: v.GetDuration("PROVIDER_HEALTH_INTERVAL"),
		MarketTickInterval:     v.GetDuration("MARKET_TICK_INTERVAL"),
	}
	if cfg.LLMMaxRetries < 0 {
		cfg.LLMMaxRetries = 0
	}
	if cfg.LLMBaseDelay <= 0 {
		cfg.LLMBaseDelay = 2 * time.Second
	}
	if cfg.LLMMaxDelay <= 0 {
		cfg.LLMMaxDelay = time.Minute
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("FRONTEND_ORIGIN", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-pro")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest")
	v.SetDefault("COHERE_MODEL", "command")
	v.SetDefault("LLM_MAX_RETRIES", 3)
	v.SetDefault("LLM_BASE_DELAY", "2s")
	v.SetDefault("LLM_MAX_DELAY", "60s")
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("SENTIMENT_WORKERS", 2)
	v.SetDefault("EDUCATION_CACHE_TTL", "24h")
	v.SetDefault("PROVIDER_HEALTH_INTERVAL", "5m")
	v.SetDefault("MARKET_TICK_INTERVAL", "30s")
}

// Validate checks the settings the server binary cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.MasterKey != "" {
		if err := crypto.ValidateKey(c.MasterKey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Providers returns the AI providers that have credentials, in preference order.
func (c Config) Providers() []contract.ProviderConfig {
	var out []contract.ProviderConfig
	if c.GeminiAPIKey != "" {
		out = append(out, contract.ProviderConfig{
			ID:           1,
			ProviderName: "gemini",
			APIKey:       c.GeminiAPIKey,
			ModelName:    c.GeminiModel,
			BaseURL:      c.GeminiBaseURL,
			Temperature:  0.7,
			MaxTokens:    2048,
		})
	}
	if c.OpenAIAPIKey != "" {
		out = append(out, contract.ProviderConfig{
			ID:           2,
			ProviderName: "openai",
			APIKey:       c.OpenAIAPIKey,
			ModelName:    c.OpenAIModel,
			Temperature:  0.7,
			MaxTokens:    1024,
		})
	}
	if c.AnthropicAPIKey != "" {
		out = append(out, contract.ProviderConfig{
			ID:           3,
			ProviderName: "anthropic",
			APIKey:       c.AnthropicAPIKey,
			ModelName:    c.AnthropicModel,
			Temperature:  0.7,
			MaxTokens:    1024,
		})
	}
	if c.CohereAPIKey != "" {
		out = append(out, contract.ProviderConfig{
			ID:           4,
			ProviderName: "cohere",
			APIKey:       c.CohereAPIKey,
			ModelName:    c.CohereModel,
			Temperature:  0.7,
			MaxTokens:    1024,
		})
	}
	return out
}
