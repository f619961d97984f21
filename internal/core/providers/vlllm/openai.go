package vlllm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	api "github.com/sashabaranov/go-openai"

	"envisonet-server-go/internal/core/providers"
	perrors "envisonet-server-go/internal/platform/errors"
)

const defaultPrompt = "You are a visual assistant describing images for a person " +
	"who cannot see them. Answer the user's question about the image in two or " +
	"three plain sentences suitable for being read aloud."

type openaiProvider struct {
	config *Config
	client *api.Client
}

func init() {
	Register("openai", newOpenAIProvider)
}

func newOpenAIProvider(config *Config) (Provider, error) {
	if config.APIKey == "" {
		return nil, perrors.New(perrors.KindConfig, "vlllm.openai", "api key is required")
	}

	clientConfig := api.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &openaiProvider{
		config: config,
		client: api.NewClientWithConfig(clientConfig),
	}, nil
}

func (p *openaiProvider) Describe(ctx context.Context, image providers.Image, query string) (string, error) {
	dataURL := fmt.Sprintf("data:image/%s;base64,%s",
		image.Format, base64.StdEncoding.EncodeToString(image.Data))

	prompt := p.config.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}

	req := api.ChatCompletionRequest{
		Model: p.config.ModelName,
		Messages: []api.ChatCompletionMessage{
			{
				Role:    api.ChatMessageRoleSystem,
				Content: prompt,
			},
			{
				Role: api.ChatMessageRoleUser,
				MultiContent: []api.ChatMessagePart{
					{
						Type: api.ChatMessagePartTypeText,
						Text: query,
					},
					{
						Type: api.ChatMessagePartTypeImageURL,
						ImageURL: &api.ChatMessageImageURL{
							URL:    dataURL,
							Detail: api.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		Stream: true,
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

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", perrors.Wrap(perrors.KindProcessing, "vlllm.describe", "vision request failed", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", perrors.Wrap(perrors.KindProcessing, "vlllm.describe", "vision stream failed", err)
		}
		if len(resp.Choices) > 0 {
			sb.WriteString(resp.Choices[0].Delta.Content)
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
