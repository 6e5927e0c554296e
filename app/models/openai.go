package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

const defaultAzureAPIVersion = "2024-06-01"

var _ Completer = &OpenAIClient{}

// OpenAIClient completes through the official OpenAI SDK, against OpenAI itself or an
// Azure OpenAI deployment.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

func NewOpenAIClient(opts Options) *OpenAIClient {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}
	return newOpenAIClient(opts, reqOpts)
}

// NewAzureOpenAIClient targets an Azure OpenAI resource; Model is the deployment name.
func NewAzureOpenAIClient(opts Options) *OpenAIClient {
	version := opts.APIVersion
	if version == "" {
		version = defaultAzureAPIVersion
	}
	reqOpts := []option.RequestOption{
		azure.WithEndpoint(opts.BaseURL, version),
		azure.WithAPIKey(opts.APIKey),
	}
	if opts.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}
	return newOpenAIClient(opts, reqOpts)
}

func newOpenAIClient(opts Options, reqOpts []option.RequestOption) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(reqOpts...),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

func (o *OpenAIClient) ModelName() string {
	return o.model
}

func (o *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(o.temperature),
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case SystemRole:
			out = append(out, openai.SystemMessage(m.Content))
		case AssistantRole:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
