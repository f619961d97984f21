// Package services orchestrates the voice query pipeline: speech
// recognition, image description, intent handling and speech synthesis.
package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"envisonet-server-go/internal/core/providers"
	"envisonet-server-go/internal/domain/audio"
	"envisonet-server-go/internal/domain/eventbus"
	"envisonet-server-go/internal/domain/intent"
	"envisonet-server-go/internal/domain/staging"
	"envisonet-server-go/internal/platform/errors"
	"envisonet-server-go/internal/platform/logging"
	"envisonet-server-go/internal/platform/storage"
)

// ResponseAudioURL is where clients fetch the synthesized reply.
const ResponseAudioURL = "/download_response_audio"

// successMessage accompanies every response that points at freshly
// synthesized (or replayed) audio. The spoken content is the audio
// itself.
const successMessage = "Processing completed successfully"

// Canned replies. The audio files ship with the server under the static
// directory.
const (
	speechErrorMessage = "Speech Recognition Error"
	speechErrorAudio   = "/static/audio/speechRecognitionError_response.mp3"

	askAboutMessage = "askAbout"
	askAboutAudio   = "/static/audio/askabout_response.mp3"

	noImageMessage = "Image History Error"
	noImageAudio   = "/static/audio/imageHistoryError_response.mp3"
)

// Result is what a query endpoint returns to the client.
type Result struct {
	Message  string
	AudioURL string
	// Action is set to "logout" when the client should end the session.
	Action string
}

// Transcriber, Describer and Synthesizer mirror the provider
// interfaces so tests can substitute fakes.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type Describer interface {
	Describe(ctx context.Context, image providers.Image, query string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Chatter interface {
	Chat(ctx context.Context, messages []providers.Message) (string, error)
}

// Booster post-processes a synthesized file in place.
type Booster interface {
	ToWAV(ctx context.Context, src, dst string) error
	Boost(ctx context.Context, path string, gainDB float64) error
}

// Pipeline wires the providers and storage into the two query operations.
type Pipeline struct {
	logger     *logging.Logger
	asr        Transcriber
	vision     Describer
	tts        Synthesizer
	transcoder Booster
	area       *staging.Area
	states     *storage.StateRepository
	classifier *intent.Classifier
	gainDB     float64
}

func NewPipeline(
	logger *logging.Logger,
	asr Transcriber,
	vision Describer,
	chat Chatter,
	tts Synthesizer,
	transcoder Booster,
	area *staging.Area,
	states *storage.StateRepository,
	gainDB float64,
) *Pipeline {
	return &Pipeline{
		logger:     logger,
		asr:        asr,
		vision:     vision,
		tts:        tts,
		transcoder: transcoder,
		area:       area,
		states:     states,
		classifier: intent.NewClassifier(chat),
		gainDB:     gainDB,
	}
}

// ProcessImageAudioQuery answers the staged recording against the
// image uploaded alongside it. The image becomes the user's last image
// only after it has been interpreted.
func (p *Pipeline) ProcessImageAudioQuery(ctx context.Context, userID uint, username string) (*Result, error) {
	imagePath, err := p.area.StagedImage(username)
	if err != nil {
		return nil, err
	}
	if imagePath == "" {
		return nil, errors.New(errors.KindClientInput, "pipeline.image_audio",
			"no image has been uploaded")
	}

	transcript, err := p.transcribeStaged(ctx, username)
	if err != nil || transcript == "" {
		// The pending image is dropped either way so a failed query
		// cannot leak into the image history.
		if derr := p.area.Discard(imagePath); derr != nil {
			p.logger.WarnTag("Pipeline", "failed to discard staged image for %s: %v", username, derr)
		}
		if err != nil {
			return nil, err
		}
		return p.recognitionFallback(), nil
	}

	answer, err := p.describeImage(ctx, username, imagePath, transcript)
	if err != nil {
		return nil, err
	}

	state, err := p.states.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	promoted, err := p.area.PromoteImage(username, imagePath, state.LastImagePath)
	if err != nil {
		return nil, err
	}
	state.LastImagePath = promoted
	if err := p.states.Save(ctx, state); err != nil {
		return nil, err
	}
	if answer == "" {
		return nil, errors.New(errors.KindProcessing, "pipeline.image_audio",
			"could not interpret the image")
	}

	return p.respond(ctx, state, username, transcript, answer)
}

// ProcessAudioQuery answers the staged recording alone, branching on
// the intent the transcript carries.
func (p *Pipeline) ProcessAudioQuery(ctx context.Context, userID uint, username string) (*Result, error) {
	transcript, err := p.transcribeStaged(ctx, username)
	if err != nil {
		return nil, err
	}
	if transcript == "" {
		return p.recognitionFallback(), nil
	}

	detected, reply, err := p.classifier.Classify(ctx, transcript)
	if err != nil {
		return nil, err
	}
	eventbus.Publish(eventbus.EventIntentClassified, eventbus.IntentEventData{
		Username:   username,
		Transcript: transcript,
		Intent:     string(detected),
	})
	p.logger.InfoTag("Pipeline", "user %s intent: %s", username, detected)

	state, err := p.states.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch detected {
	case intent.Logout:
		if err := p.area.Cleanup(username); err != nil {
			p.logger.WarnTag("Pipeline", "cleanup on logout failed for %s: %v", username, err)
		}
		if err := p.states.ClearFiles(ctx, userID); err != nil {
			p.logger.WarnTag("Pipeline", "failed to clear state on logout for %s: %v", username, err)
		}
		return &Result{Message: "Logging out", Action: "logout"}, nil

	case intent.AskAbout:
		return &Result{Message: askAboutMessage, AudioURL: askAboutAudio}, nil

	case intent.Repeat:
		// The previous response audio is served as-is; nothing is
		// synthesized.
		return &Result{Message: successMessage, AudioURL: ResponseAudioURL}, nil

	case intent.LastImage:
		if state.LastImagePath == "" {
			return &Result{Message: noImageMessage, AudioURL: noImageAudio}, nil
		}
		answer, err := p.describeImage(ctx, username, state.LastImagePath, transcript)
		if err != nil {
			return nil, err
		}
		return p.respond(ctx, state, username, transcript, answer)

	default:
		// Anything the classifier did not label is its direct answer to
		// the question; it just needs a voice.
		return p.respond(ctx, state, username, transcript, reply)
	}
}

// transcribeStaged converts the staged WebM recording to WAV and runs
// speech recognition. The recording is consumed either way. A
// recognition failure yields an empty transcript with no error so
// callers can serve the canned fallback; missing audio and transcoding
// failures are hard errors.
func (p *Pipeline) transcribeStaged(ctx context.Context, username string) (string, error) {
	audioPath, err := p.area.StagedAudio(username)
	if err != nil {
		return "", err
	}
	if audioPath == "" {
		return "", errors.New(errors.KindClientInput, "pipeline.transcribe",
			"no audio has been uploaded")
	}
	defer os.Remove(audioPath)

	wavPath := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".wav"
	if err := p.transcoder.ToWAV(ctx, audioPath, wavPath); err != nil {
		return "", err
	}
	defer os.Remove(wavPath)

	transcript, err := p.asr.Transcribe(ctx, wavPath)
	if err != nil {
		p.logger.ErrorTag("ASR", "recognition failed for %s: %v", username, err)
		eventbus.Publish(eventbus.EventPipelineError, eventbus.ErrorEventData{
			Username: username,
			Stage:    "asr",
			Message:  err.Error(),
		})
		return "", nil
	}
	if transcript == "" {
		return "", nil
	}

	eventbus.Publish(eventbus.EventTranscriptReady, eventbus.TranscriptEventData{
		Username:   username,
		Transcript: transcript,
	})
	p.logger.InfoTag("ASR", "user %s said: %s", username, transcript)
	return transcript, nil
}

func (p *Pipeline) describeImage(ctx context.Context, username, imagePath, query string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", errors.Wrap(errors.KindStorage, "pipeline.describe", "failed to read image", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(imagePath)), ".")
	if format == "jpg" {
		format = "jpeg"
	}

	answer, err := p.vision.Describe(ctx, providers.Image{Data: data, Format: format}, query)
	if err != nil {
		return "", err
	}
	p.logger.InfoTag("VLLLM", "described %s for %s", staging.DisplayName(imagePath), username)
	return answer, nil
}

// respond synthesizes the answer, stores it as the user's response
// audio and records the turn in the state record, which is what the
// download endpoint and the lastImage branch read.
func (p *Pipeline) respond(ctx context.Context, state *storage.UserState, username, transcript, answer string) (*Result, error) {
	speech, err := p.tts.Synthesize(ctx, answer)
	if err != nil {
		return nil, err
	}

	audioPath, err := p.area.WriteResponseAudio(username, speech)
	if err != nil {
		return nil, err
	}
	if err := p.transcoder.Boost(ctx, audioPath, p.gainDB); err != nil {
		p.logger.WarnTag("TTS", "gain boost failed for %s, serving unboosted audio: %v", username, err)
	}
	if d, err := audio.Duration(audioPath); err == nil {
		p.logger.DebugTag("TTS", "response audio for %s runs %s", username, d.Round(time.Millisecond))
	}

	state.LastTranscript = transcript
	state.LastResponse = answer
	state.ResponseAudioPath = audioPath
	if err := p.states.Save(ctx, state); err != nil {
		return nil, err
	}
	if err := p.states.BumpCounter(ctx, state.UserID, "queries"); err != nil {
		p.logger.WarnTag("Storage", "failed to bump query counter for %s: %v", username, err)
	}

	eventbus.Publish(eventbus.EventSynthesisCompleted, eventbus.SynthesisEventData{
		Username:  username,
		Text:      answer,
		AudioPath: audioPath,
	})

	return &Result{Message: successMessage, AudioURL: ResponseAudioURL}, nil
}

// recognitionFallback is the canned spoken reply served when speech
// recognition yields nothing. It is a success response, not an error.
func (p *Pipeline) recognitionFallback() *Result {
	return &Result{Message: speechErrorMessage, AudioURL: speechErrorAudio}
}
