package openai

import (
	"context"
	"io"

	api "github.com/sashabaranov/go-openai"

	"envisonet-server-go/internal/core/providers/tts"
	"envisonet-server-go/internal/platform/errors"
)

// Provider synthesizes speech through the OpenAI audio endpoint.
type Provider struct {
	config *tts.Config
	client *api.Client
}

func init() {
	tts.Register("openai", NewProvider)
}

func NewProvider(config *tts.Config) (tts.Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "tts.openai", "api key is required")
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

func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New(errors.KindProcessing, "tts.openai", "empty text")
	}

	model := api.SpeechModel(p.config.ModelName)
	if model == "" {
		model = api.TTSModel1
	}
	voice := api.SpeechVoice(p.config.Voice)
	if voice == "" {
		voice = api.VoiceAlloy
	}

	resp, err := p.client.CreateSpeech(ctx, api.CreateSpeechRequest{
		Model:          model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: api.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindProcessing, "tts.openai", "speech request failed", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, errors.Wrap(errors.KindProcessing, "tts.openai", "failed to read speech response", err)
	}
	return audio, nil
}
