// Package asr defines the speech-to-text provider interface and its
// factory registry.
package asr

import (
	"context"
	"fmt"
)

type Config struct {
	Type      string `yaml:"type"`
	ModelName string `yaml:"model_name"`
	BaseURL   string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	Language  string `yaml:"language,omitempty"`
}

// Provider transcribes a recorded audio file into text.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Factory creates an ASR provider from its configuration.
type Factory func(config *Config) (Provider, error)

var factories = make(map[string]Factory)

func Register(name string, factory Factory) {
	factories[name] = factory
}

func Create(config *Config) (Provider, error) {
	factory, ok := factories[config.Type]
	if !ok {
		return nil, fmt.Errorf("unknown ASR provider type: %s", config.Type)
	}

	provider, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create ASR provider: %v", err)
	}
	return provider, nil
}
