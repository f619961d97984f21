package config

import "time"

type Config struct {
	Server   ServerConfig           `yaml:"server"`
	Log      LogConfig              `yaml:"log"`
	Storage  StorageConfig          `yaml:"storage"`
	Session  SessionConfig          `yaml:"session"`
	Selected SelectedConfig         `yaml:"selected_module"`
	ASR      map[string]ASRConfig   `yaml:"ASR"`
	LLM      map[string]LLMConfig   `yaml:"LLM"`
	VLLLM    map[string]VLLLMConfig `yaml:"VLLLM"`
	TTS      map[string]TTSConfig   `yaml:"TTS"`
}

type ServerConfig struct {
	IP        string `yaml:"ip"`
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	StaticDir string `yaml:"static_dir"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type StorageConfig struct {
	// DataDir holds the sqlite database file.
	DataDir string `yaml:"data_dir"`
	// StagingDir is the root under which each user gets files_for_<user>.
	StagingDir string `yaml:"staging_dir"`
}

type SessionConfig struct {
	// Driver selects the session store backend: memory or redis.
	Driver string              `yaml:"driver"`
	TTL    time.Duration       `yaml:"ttl"`
	Redis  SessionRedisConfig  `yaml:"redis"`
	Memory SessionMemoryConfig `yaml:"memory"`
}

type SessionRedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SessionMemoryConfig struct {
	Cleanup time.Duration `yaml:"cleanup"`
}

// SelectedConfig names the provider picked from each map at startup.
// The TTS entry is the synthesis provider switch (edge or openai).
type SelectedConfig struct {
	ASR   string `yaml:"ASR"`
	LLM   string `yaml:"LLM"`
	VLLLM string `yaml:"VLLLM"`
	TTS   string `yaml:"TTS"`
}

type ASRConfig struct {
	Type      string `yaml:"type"`
	ModelName string `yaml:"model_name"`
	BaseURL   string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	Language  string `yaml:"language,omitempty"`
}

type LLMConfig struct {
	Type        string  `yaml:"type"`
	ModelName   string  `yaml:"model_name"`
	BaseURL     string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
}

type VLLLMConfig struct {
	Type        string  `yaml:"type"`
	ModelName   string  `yaml:"model_name"`
	BaseURL     string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
	Prompt      string  `yaml:"prompt"`
}

type TTSConfig struct {
	Type      string `yaml:"type"`
	Voice     string `yaml:"voice"`
	ModelName string `yaml:"model_name,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"url,omitempty"`
	// GainDB is applied to every synthesized file after encoding.
	GainDB float64 `yaml:"gain_db"`
}
