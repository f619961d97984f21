package edge

import (
	"context"

	"github.com/wujunwei928/edge-tts-go/edge_tts"

	"envisonet-server-go/internal/core/providers/tts"
	"envisonet-server-go/internal/platform/errors"
)

const defaultVoice = "en-US-AriaNeural"

// Provider synthesizes speech through the free Edge TTS service.
type Provider struct {
	config *tts.Config
}

func init() {
	tts.Register("edge", NewProvider)
}

func NewProvider(config *tts.Config) (tts.Provider, error) {
	if config.Voice == "" {
		config.Voice = defaultVoice
	}
	return &Provider{config: config}, nil
}

func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New(errors.KindProcessing, "tts.edge", "empty text")
	}

	communicate, err := edge_tts.NewCommunicate(text, edge_tts.SetVoice(p.config.Voice))
	if err != nil {
		return nil, errors.Wrap(errors.KindProcessing, "tts.edge", "failed to create communicator", err)
	}

	audio, err := communicate.Stream()
	if err != nil {
		return nil, errors.Wrap(errors.KindProcessing, "tts.edge", "synthesis failed", err)
	}
	return audio, nil
}
