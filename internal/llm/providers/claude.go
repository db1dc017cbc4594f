package providers

import (
	"context"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"finai/backend/internal/llm/contract"
)

type ClaudeProvider struct {
	client anthropic.Client
	config *contract.ProviderConfig
	usage  usageTracker
}

func NewClaudeProvider(config *contract.ProviderConfig) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	)
	return &ClaudeProvider{
		client: client,
		config: config,
	}
}

func (c *ClaudeProvider) Name() string { return "anthropic" }

func (c *ClaudeProvider) GetConfig() *contract.ProviderConfig { return c.config }

func (c *ClaudeProvider) GetUsage(ctx context.Context) (*contract.UsageStats, error) {
	return c.usage.snapshot(), nil
}

func (c *ClaudeProvider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.ModelName),
		MaxTokens:   int64(requestMaxTokens(req, c.config)),
		Temperature: anthropic.Float(requestTemperature(req, c.config)),
		Messages:    claudeMessages(req),
	}
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\nRespond with JSON only.")
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.usage.record(c.config, req.Feature, start, 0, 0, err)
		return nil, ClassifyError(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		c.usage.record(c.config, req.Feature, start, 0, 0, errEmptyResponse)
		return nil, errEmptyResponse
	}
	record := c.usage.record(c.config, req.Feature, start, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens), nil)
	return &contract.Completion{
		Text:   responseText(req, resp.Content[0].Text),
		Usage:  record,
		Model:  string(resp.Model),
		Source: c.Name(),
	}, nil
}

func (c *ClaudeProvider) HealthCheck(ctx context.Context) (*contract.HealthCheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.ModelName),
		MaxTokens:   int64(32),
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Respond with: OK")),
		},
	})
	return healthResult(start, err), err
}

func claudeMessages(req contract.CompletionRequest) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, msg := range req.History {
		if msg.Role == contract.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
	}
	return append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))
}
