package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	perrors "envisonet-server-go/internal/platform/errors"
)

const defaultPath = "config.yaml"

// Loader reads the YAML configuration file and applies environment
// overrides on top of it.
type Loader struct {
	useDotEnv bool
	path      string
}

func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		path:      defaultPath,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the configuration file path (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// Missing .env just means the process environment is used as-is.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindConfig, "load", "failed to read config file", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, perrors.Wrap(perrors.KindConfig, "load", "failed to parse config file", err)
	}

	l.applyEnv(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: l.path}, nil
}

// applyEnv layers ENVISONET_* variables over the file values so deployments
// can keep secrets out of the YAML.
func (l *Loader) applyEnv(cfg *Config) {
	if v := os.Getenv("ENVISONET_SERVER_IP"); v != "" {
		cfg.Server.IP = v
	}
	if v := os.Getenv("ENVISONET_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ENVISONET_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("ENVISONET_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ENVISONET_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("ENVISONET_STAGING_DIR"); v != "" {
		cfg.Storage.StagingDir = v
	}
	if v := os.Getenv("ENVISONET_REDIS_ADDR"); v != "" {
		cfg.Session.Redis.Addr = v
	}
	if v := os.Getenv("ENVISONET_OPENAI_API_KEY"); v != "" {
		for name, p := range cfg.ASR {
			if p.APIKey == "" {
				p.APIKey = v
				cfg.ASR[name] = p
			}
		}
		for name, p := range cfg.VLLLM {
			if p.APIKey == "" {
				p.APIKey = v
				cfg.VLLLM[name] = p
			}
		}
		for name, p := range cfg.TTS {
			if p.Type == "openai" && p.APIKey == "" {
				p.APIKey = v
				cfg.TTS[name] = p
			}
		}
	}
	if v := os.Getenv("ENVISONET_XAI_API_KEY"); v != "" {
		for name, p := range cfg.LLM {
			if p.APIKey == "" {
				p.APIKey = v
				cfg.LLM[name] = p
			}
		}
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return perrors.New(perrors.KindConfig, "validate", "server port out of range")
	}
	if cfg.Server.JWTSecret == "" {
		return perrors.New(perrors.KindConfig, "validate", "jwt secret is required")
	}
	if _, ok := cfg.ASR[cfg.Selected.ASR]; !ok {
		return perrors.New(perrors.KindConfig, "validate", "selected ASR provider not configured")
	}
	if _, ok := cfg.LLM[cfg.Selected.LLM]; !ok {
		return perrors.New(perrors.KindConfig, "validate", "selected LLM provider not configured")
	}
	if _, ok := cfg.VLLLM[cfg.Selected.VLLLM]; !ok {
		return perrors.New(perrors.KindConfig, "validate", "selected VLLLM provider not configured")
	}
	if _, ok := cfg.TTS[cfg.Selected.TTS]; !ok {
		return perrors.New(perrors.KindConfig, "validate", "selected TTS provider not configured")
	}
	switch cfg.Session.Driver {
	case "memory", "redis":
	default:
		return perrors.New(perrors.KindConfig, "validate", "session driver must be memory or redis")
	}
	return nil
}
