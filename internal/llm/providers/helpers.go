package providers

import (
	"strings"
	"sync"
	"time"

	"finai/backend/internal/llm/contract"
)

func joinLines(messages []string) string {
	return strings.Join(messages, "\n")
}

func averageLatency(current time.Duration, new time.Duration, count int64) time.Duration {
	if count <= 1 {
		return new
	}
	return time.Duration(((current * time.Duration(count-1)) + new) / time.Duration(count))
}

func extractJSON(text string) string {
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "}]")
	if start == -1 || end == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

func requestTemperature(req contract.CompletionRequest, config *contract.ProviderConfig) float64 {
	if req.Temperature != nil {
		return *req.Temperature
	}
	return config.Temperature
}

func requestMaxTokens(req contract.CompletionRequest, config *contract.ProviderConfig) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if config.MaxTokens > 0 {
		return config.MaxTokens
	}
	return 1024
}

// flattenPrompt renders system text, history and the prompt as one block for
// providers that only accept a single prompt string.
func flattenPrompt(req contract.CompletionRequest) string {
	lines := make([]string, 0, len(req.History)+2)
	if req.System != "" {
		lines = append(lines, req.System, "")
	}
	for _, msg := range req.History {
		speaker := "User"
		if msg.Role == contract.RoleAssistant {
			speaker = "Assistant"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	if len(req.History) > 0 {
		lines = append(lines, "User: "+req.Prompt)
	} else {
		lines = append(lines, req.Prompt)
	}
	return joinLines(lines)
}

func responseText(req contract.CompletionRequest, text string) string {
	text = strings.TrimSpace(text)
	if req.JSON {
		return extractJSON(text)
	}
	return text
}

type usageTracker struct {
	mu    sync.Mutex
	stats contract.UsageStats
	last  contract.UsageRecord
}

func (u *usageTracker) record(config *contract.ProviderConfig, feature string, start time.Time, input, output int, err error) contract.UsageRecord {
	latency := time.Since(start)
	record := contract.UsageRecord{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
		Latency:      latency,
		Success:      err == nil,
		Feature:      feature,
	}
	if err != nil {
		record.ErrorMessage = err.Error()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = record
	u.stats.TotalRequests++
	if err != nil {
		u.stats.FailedRequests++
		return record
	}
	u.stats.SuccessfulRequests++
	u.stats.TotalCost += record.TotalCost(config.CostPer1KInput, config.CostPer1KOutput)
	u.stats.AverageLatency = averageLatency(u.stats.AverageLatency, latency, u.stats.SuccessfulRequests)
	return record
}

func (u *usageTracker) snapshot() *contract.UsageStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	stats := u.stats
	return &stats
}

func healthResult(start time.Time, err error) *contract.HealthCheckResult {
	status := "ok"
	msg := ""
	if err != nil {
		status = "error"
		msg = err.Error()
	}
	return &contract.HealthCheckResult{
		Status:        status,
		Latency:       time.Since(start),
		EstimatedCost: 0,
		ErrorMessage:  msg,
		Timestamp:     time.Now().UTC(),
	}
}
