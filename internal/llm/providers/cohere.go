package providers

import (
	"context"
	"errors"
	"time"

	cohere "github.com/cohere-ai/cohere-go"

	"finai/backend/internal/llm/contract"
)

var errCohereClient = errors.New("cohere client not initialized")

type CohereProvider struct {
	client *cohere.Client
	config *contract.ProviderConfig
	usage  usageTracker
}

func NewCohereProvider(config *contract.ProviderConfig) *CohereProvider {
	client, _ := cohere.CreateClient(config.APIKey)
	return &CohereProvider{
		client: client,
		config: config,
	}
}

func (c *CohereProvider) Name() string { return "cohere" }

func (c *CohereProvider) GetConfig() *contract.ProviderConfig { return c.config }

func (c *CohereProvider) GetUsage(ctx context.Context) (*contract.UsageStats, error) {
	return c.usage.snapshot(), nil
}

// Complete uses the single-prompt generate endpoint, so history is flattened
// into the prompt text. The client has no context support; ctx only bounds
// the wait for the result.
func (c *CohereProvider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	if c.client == nil {
		return nil, errCohereClient
	}
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	prompt := flattenPrompt(req)
	if req.JSON {
		prompt += "\n\nRespond with JSON only."
	}
	maxTokens := uint(requestMaxTokens(req, c.config))
	temperature := requestTemperature(req, c.config)

	type result struct {
		resp *cohere.GenerateResponse
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		resp, err := c.client.Generate(cohere.GenerateOptions{
			Model:       c.config.ModelName,
			Prompt:      prompt,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		done <- result{resp: resp, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		c.usage.record(c.config, req.Feature, start, 0, 0, ctx.Err())
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		c.usage.record(c.config, req.Feature, start, 0, 0, res.err)
		return nil, ClassifyError(res.err)
	}
	if res.resp == nil || len(res.resp.Generations) == 0 {
		c.usage.record(c.config, req.Feature, start, 0, 0, errEmptyResponse)
		return nil, errEmptyResponse
	}
	record := c.usage.record(c.config, req.Feature, start, 0, 0, nil)
	return &contract.Completion{
		Text:   responseText(req, res.resp.Generations[0].Text),
		Usage:  record,
		Model:  c.config.ModelName,
		Source: c.Name(),
	}, nil
}

func (c *CohereProvider) HealthCheck(ctx context.Context) (*contract.HealthCheckResult, error) {
	if c.client == nil {
		return healthResult(time.Now(), errCohereClient), errCohereClient
	}
	start := time.Now()
	maxTokens := uint(10)
	temperature := 0.0
	_, err := c.client.Generate(cohere.GenerateOptions{
		Model:       c.config.ModelName,
		Prompt:      "Respond with: OK",
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	return healthResult(start, err), err
}
