// Package tts defines the speech synthesis provider interface and its
// factory registry. Providers return encoded MP3 bytes; writing them to
// the user's staging area is the caller's job.
package tts

import (
	"context"
	"fmt"
)

type Config struct {
	Type      string  `yaml:"type"`
	Voice     string  `yaml:"voice"`
	ModelName string  `yaml:"model_name,omitempty"`
	APIKey    string  `yaml:"api_key,omitempty"`
	BaseURL   string  `yaml:"url,omitempty"`
	GainDB    float64 `yaml:"gain_db"`
}

// Provider synthesizes text into MP3 audio.
type Provider interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Factory func(config *Config) (Provider, error)

var factories = make(map[string]Factory)

func Register(name string, factory Factory) {
	factories[name] = factory
}

func Create(config *Config) (Provider, error) {
	factory, ok := factories[config.Type]
	if !ok {
		return nil, fmt.Errorf("unknown TTS provider type: %s", config.Type)
	}

	provider, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS provider: %v", err)
	}
	return provider, nil
}
