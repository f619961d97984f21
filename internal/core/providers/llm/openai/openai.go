package openai

import (
	"context"
	"strings"

	api "github.com/sashabaranov/go-openai"

	"envisonet-server-go/internal/core/providers"
	"envisonet-server-go/internal/core/providers/llm"
	"envisonet-server-go/internal/platform/errors"
)

// Provider speaks the OpenAI chat completion protocol, which also covers
// compatible vendors when a base URL is configured (x.ai, local gateways).
type Provider struct {
	config *llm.Config
	client *api.Client
}

func init() {
	llm.Register("openai", NewProvider)
}

func NewProvider(config *llm.Config) (llm.Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "llm.openai", "api key is required")
	}

	clientConfig := api.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Provider{
		config: config,
		client: api.NewClientWithConfig(clientConfig),
	}, nil
}

func (p *Provider) Chat(ctx context.Context, messages []providers.Message) (string, error) {
	chatMessages := make([]api.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = api.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := api.ChatCompletionRequest{
		Model:    p.config.ModelName,
		Messages: chatMessages,
	}
	if p.config.Temperature > 0 {
		req.Temperature = float32(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		req.MaxTokens = p.config.MaxTokens
	}
	if p.config.TopP > 0 {
		req.TopP = float32(p.config.TopP)
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrap(errors.KindProcessing, "llm.chat", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindProcessing, "llm.chat", "chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
