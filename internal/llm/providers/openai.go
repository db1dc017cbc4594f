package providers

import (
	"context"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"finai/backend/internal/llm/contract"
)

// OpenAIProvider talks to the chat completions API. With a BaseURL it also
// serves OpenAI-compatible endpoints such as Gemini's.
type OpenAIProvider struct {
	client openai.Client
	config *contract.ProviderConfig
	usage  usageTracker
}

func NewOpenAIProvider(config *contract.ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		config: config,
	}
}

func (o *OpenAIProvider) Name() string {
	if o.config.ProviderName != "" {
		return o.config.ProviderName
	}
	return "openai"
}

func (o *OpenAIProvider) GetConfig() *contract.ProviderConfig { return o.config }

func (o *OpenAIProvider) GetUsage(ctx context.Context) (*contract.UsageStats, error) {
	return o.usage.snapshot(), nil
}

func (o *OpenAIProvider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.config.ModelName),
		Temperature: openai.Float(requestTemperature(req, o.config)),
		MaxTokens:   openai.Int(int64(requestMaxTokens(req, o.config))),
		Messages:    chatMessages(req),
	}
	if req.JSON {
		format := shared.NewResponseFormatJSONObjectParam()
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &format,
		}
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.usage.record(o.config, req.Feature, start, 0, 0, err)
		return nil, ClassifyError(err)
	}
	if len(resp.Choices) == 0 {
		o.usage.record(o.config, req.Feature, start, 0, 0, errEmptyResponse)
		return nil, errEmptyResponse
	}
	record := o.usage.record(o.config, req.Feature, start, int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens), nil)
	return &contract.Completion{
		Text:   responseText(req, resp.Choices[0].Message.Content),
		Usage:  record,
		Model:  resp.Model,
		Source: o.Name(),
	}, nil
}

func (o *OpenAIProvider) HealthCheck(ctx context.Context) (*contract.HealthCheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	_, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.config.ModelName),
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(8),
		Messages: []openai.ChatCompletionMessageParamUnion{
			userMessage("Respond with: OK"),
		},
	})
	return healthResult(start, err), err
}

func chatMessages(req contract.CompletionRequest) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, systemMessage(req.System))
	}
	for _, msg := range req.History {
		if msg.Role == contract.RoleAssistant {
			messages = append(messages, assistantMessage(msg.Content))
			continue
		}
		messages = append(messages, userMessage(msg.Content))
	}
	return append(messages, userMessage(req.Prompt))
}

func systemMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

func assistantMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfAssistant: &openai.ChatCompletionAssistantMessageParam{
			Content: openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

func userMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}
