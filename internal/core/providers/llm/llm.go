// Package llm defines the text-only chat provider interface used for
// intent classification, plus its factory registry.
package llm

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
}

// Provider runs a chat completion and returns the assistant reply.
type Provider interface {
	Chat(ctx context.Context, messages []providers.Message) (string, error)
}

type Factory func(config *Config) (Provider, error)

var factories = make(map[string]Factory)

func Register(name string, factory Factory) {
	factories[name] = factory
}

func Create(config *Config) (Provider, error) {
	factory, ok := factories[config.Type]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider type: %s", config.Type)
	}

	provider, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %v", err)
	}
	return provider, nil
}
