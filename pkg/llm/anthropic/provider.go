package anthropic

import (
	"context"
	"fmt"
	"strings"

	"ai-research-be/pkg/llm"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicProvider struct {
	ModelName string
	client    anthropicsdk.Client
}

// Ensure AnthropicProvider implements LLMProvider
var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, modelName string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if modelName == "" {
		modelName = "claude-3-haiku-20240307"
	}
	return &AnthropicProvider{
		ModelName: modelName,
		client:    anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

func (p *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0.5,
		MaxTokens:   1024,
	}
	for _, opt := range opts {
		opt(options)
	}

	// System messages go in the System parameter, not the message list
	messages := make([]anthropicsdk.MessageParam, 0, len(history))
	var systemText string
	for _, msg := range history {
		switch msg.Role {
		case "system":
			if systemText == "" {
				systemText = msg.Content
			}
		case "assistant":
			messages = append(messages, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		default:
			messages = append(messages, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		}
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("at least one non-system message is required")
	}

	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}

	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(model),
		MaxTokens:   int64(options.MaxTokens),
		Temperature: anthropicsdk.Float(options.Temperature),
		Messages:    messages,
	}
	if systemText != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: systemText},
		}
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
