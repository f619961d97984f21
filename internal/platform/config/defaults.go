package config

import "time"

// DefaultConfig returns the baseline configuration the YAML file is
// unmarshalled over, so a minimal file still yields a runnable server.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:        "0.0.0.0",
			Port:      5000,
			StaticDir: "static",
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Storage: StorageConfig{
			DataDir:    "data",
			StagingDir: "FILES",
		},
		Session: SessionConfig{
			Driver: "memory",
			TTL:    24 * time.Hour,
			Memory: SessionMemoryConfig{
				Cleanup: 5 * time.Minute,
			},
			Redis: SessionRedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "envisonet:session:",
			},
		},
		Selected: SelectedConfig{
			ASR:   "WhisperASR",
			LLM:   "GrokIntent",
			VLLLM: "GPT4oVision",
			TTS:   "EdgeTTS",
		},
		ASR: map[string]ASRConfig{
			"WhisperASR": {
				Type:      "openai",
				ModelName: "whisper-1",
			},
		},
		LLM: map[string]LLMConfig{
			"GrokIntent": {
				Type:      "openai",
				ModelName: "grok-beta",
				BaseURL:   "https://api.x.ai/v1",
			},
		},
		VLLLM: map[string]VLLLMConfig{
			"GPT4oVision": {
				Type:        "openai",
				ModelName:   "gpt-4o-mini",
				MaxTokens:   500,
				Temperature: 0.5,
				TopP:        0.9,
			},
		},
		TTS: map[string]TTSConfig{
			"EdgeTTS": {
				Type:   "edge",
				Voice:  "en-US-AriaNeural",
				GainDB: 5,
			},
			"OpenAITTS": {
				Type:      "openai",
				ModelName: "tts-1",
				Voice:     "alloy",
				GainDB:    5,
			},
		},
	}
}
