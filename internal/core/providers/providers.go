// Package providers holds the types shared by the pluggable ASR, LLM,
// VLLLM and TTS provider packages.
package providers

// Message is a single chat turn sent to a language model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Image carries raw image bytes plus the format needed to build a data URL.
type Image struct {
	Data   []byte
	Format string // jpeg or png
}
