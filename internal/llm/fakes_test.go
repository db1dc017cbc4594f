package llm

import (
	"context"
	"sync"
	"time"
)

type fakeResponse struct {
	text string
	err  error
}

// fakeProvider replays responses in order and repeats the last one.
type fakeProvider struct {
	name      string
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	requests  []CompletionRequest
	health    error
	latency   time.Duration
}

func newFakeProvider(name string, responses ...fakeResponse) *fakeProvider {
	return &fakeProvider{name: name, responses: responses}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	if idx < 0 {
		return &Completion{Source: f.name}, nil
	}
	resp := f.responses[idx]
	if resp.err != nil {
		return nil, resp.err
	}
	return &Completion{Text: resp.text, Source: f.name, Usage: UsageRecord{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}, nil
}

func (f *fakeProvider) HealthCheck(ctx context.Context) (*HealthCheckResult, error) {
	if f.health != nil {
		return nil, f.health
	}
	return &HealthCheckResult{Status: HealthOK, Latency: f.latency, Timestamp: time.Now()}, nil
}

func (f *fakeProvider) GetConfig() *ProviderConfig {
	return &ProviderConfig{ProviderName: f.name, CostPer1KInput: 1, CostPer1KOutput: 2}
}

func (f *fakeProvider) GetUsage(ctx context.Context) (*UsageStats, error) {
	return &UsageStats{}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) lastRequest() CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return CompletionRequest{}
	}
	return f.requests[len(f.requests)-1]
}
