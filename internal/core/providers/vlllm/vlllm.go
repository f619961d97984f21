// Package vlllm defines the vision language model provider used to
// describe uploaded images in the context of the user's transcript.
package vlllm

import (
	"context"
	"fmt"

	"envisonet-server-go/internal/core/providers"
)

type Config struct {
	Type        string  `yaml:"type"`
	ModelName   string  `yaml:"model_name"`
	BaseURL     string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
	Prompt      string  `yaml:"prompt"`
}

// Provider answers a text query about an image.
type Provider interface {
	Describe(ctx context.Context, image providers.Image, query string) (string, error)
}

type Factory func(config *Config) (Provider, error)

var factories = make(map[string]Factory)

func Register(name string, factory Factory) {
	factories[name] = factory
}

func Create(config *Config) (Provider, error) {
	factory, ok := factories[config.Type]
	if !ok {
		return nil, fmt.Errorf("unknown VLLLM provider type: %s", config.Type)
	}

	provider, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create VLLLM provider: %v", err)
	}
	return provider, nil
}
