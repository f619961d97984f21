package eventbus

// Topics published by the query pipeline.
const (
	EventTranscriptReady    = "pipeline.transcript_ready"
	EventIntentClassified   = "pipeline.intent_classified"
	EventSynthesisCompleted = "pipeline.synthesis_completed"
	EventPipelineError      = "pipeline.error"
)

// TranscriptEventData is published once ASR has produced text.
type TranscriptEventData struct {
	Username   string
	Transcript string
}

// IntentEventData is published after classification.
type IntentEventData struct {
	Username   string
	Transcript string
	Intent     string
}

// SynthesisEventData is published when response audio has been written.
type SynthesisEventData struct {
	Username  string
	Text      string
	AudioPath string
}

// ErrorEventData is published when a pipeline stage fails.
type ErrorEventData struct {
	Username string
	Stage    string
	Message  string
}
