package llm

import "finai/backend/internal/llm/contract"

type Provider = contract.Provider

type ProviderConfig = contract.ProviderConfig

type ChatMessage = contract.ChatMessage

type CompletionRequest = contract.CompletionRequest

type Completion = contract.Completion

type HealthCheckResult = contract.HealthCheckResult

type UsageStats = contract.UsageStats

type UsageRecord = contract.UsageRecord

type RateLimitError = contract.RateLimitError

const (
	RoleUser      = contract.RoleUser
	RoleAssistant = contract.RoleAssistant
)
