package openai

import (
	"context"
	"strings"

	api "github.com/sashabaranov/go-openai"

	"envisonet-server-go/internal/core/providers/asr"
	"envisonet-server-go/internal/platform/errors"
)

// Provider transcribes audio through the OpenAI transcription endpoint.
type Provider struct {
	config *asr.Config
	client *api.Client
}

func init() {
	asr.Register("openai", NewProvider)
}

func NewProvider(config *asr.Config) (asr.Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "asr.openai", "api key is required")
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

func (p *Provider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	model := p.config.ModelName
	if model == "" {
		model = api.Whisper1
	}

	resp, err := p.client.CreateTranscription(ctx, api.AudioRequest{
		Model:    model,
		FilePath: audioPath,
		Language: p.config.Language,
	})
	if err != nil {
		return "", errors.Wrap(errors.KindProcessing, "asr.transcribe", "transcription request failed", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
