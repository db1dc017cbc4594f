package contract

import (
	"context"
	"time"
)

type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	HealthCheck(ctx context.Context) (*HealthCheckResult, error)
	GetConfig() *ProviderConfig
	GetUsage(ctx context.Context) (*UsageStats, error)
}

type ProviderConfig struct {
	ID              int64
	ProviderName    string
	APIKey          string
	ModelName       string
	BaseURL         string
	Temperature     float64
	MaxTokens       int
	CostPer1KInput  float64
	CostPer1KOutput float64
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of conversational history forwarded to a provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Feature     string
	System      string
	Prompt      string
	History     []ChatMessage
	JSON        bool
	Temperature *float64
	MaxTokens   int
}

type Completion struct {
	Text   string
	Usage  UsageRecord
	Model  string
	Source string
}

type HealthCheckResult struct {
	Status        string        `json:"status"`
	Latency       time.Duration `json:"latency"`
	EstimatedCost float64       `json:"estimated_cost"`
	ErrorMessage  string        `json:"error_message"`
	Timestamp     time.Time     `json:"timestamp"`
}

type UsageStats struct {
	TotalRequests      int64         `json:"total_requests"`
	SuccessfulRequests int64         `json:"successful_requests"`
	FailedRequests     int64         `json:"failed_requests"`
	TotalCost          float64       `json:"total_cost"`
	AverageLatency     time.Duration `json:"average_latency"`
}

type UsageRecord struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Latency      time.Duration
	Success      bool
	ErrorMessage string
	Feature      string
}

func (u UsageRecord) InputCost(costPer1K float64) float64 {
	return (float64(u.InputTokens) / 1000.0) * costPer1K
}

func (u UsageRecord) OutputCost(costPer1K float64) float64 {
	return (float64(u.OutputTokens) / 1000.0) * costPer1K
}

func (u UsageRecord) TotalCost(costIn, costOut float64) float64 {
	return u.InputCost(costIn) + u.OutputCost(costOut)
}

// RateLimitError is the shape provider adapters translate throttling
// responses into. RetryDelay is the provider's suggested wait, if any.
type RateLimitError struct {
	StatusCode int
	RetryDelay time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err == nil {
		return "rate limited"
	}
	return "rate limited: " + e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}
