// Package intent classifies a user's transcript into one of the
// commands the pipeline understands. Classification is delegated to a
// language model that must answer with a bare label; anything it says
// that is not a known label falls through to a free-form query.
package intent

import (
	"context"
	"strings"

	"envisonet-server-go/internal/core/providers"
)

// Intent is the command extracted from a transcript.
type Intent string

const (
	// Logout ends the session and discards the user's staged files.
	Logout Intent = "logout"
	// AskAbout means the user wants to ask about an image but has not
	// provided one in this request.
	AskAbout Intent = "askAbout"
	// LastImage asks the question against the previously uploaded image.
	LastImage Intent = "lastImage"
	// Repeat replays the previous response audio unchanged.
	Repeat Intent = "repeat"
	// FreeForm is any other request, answered as a plain text query.
	FreeForm Intent = "freeForm"
)

const classifierPrompt = `You are an intent classifier for a voice assistant.
If the user's message matches one of these intents, reply with only the
intent name, nothing else:

- logout: the user wants to log out or end the session
- askAbout: the user wants to ask about an image or photo
- lastImage: the user refers to the previous, last or most recent image
- repeat: the user asks to repeat or say the last answer again

If none of them apply, answer the user's message directly in two or three
plain sentences suitable for being read aloud.`

// Chatter is the slice of the LLM provider the classifier needs.
type Chatter interface {
	Chat(ctx context.Context, messages []providers.Message) (string, error)
}

// Classifier asks a language model which command a transcript carries.
type Classifier struct {
	llm Chatter
}

func NewClassifier(llm Chatter) *Classifier {
	return &Classifier{llm: llm}
}

// Classify returns the intent for the transcript along with the model's
// trimmed reply. For FreeForm the reply is the spoken answer itself; an
// unrecognized reply is not an error.
func (c *Classifier) Classify(ctx context.Context, transcript string) (Intent, string, error) {
	reply, err := c.llm.Chat(ctx, []providers.Message{
		{Role: "system", Content: classifierPrompt},
		{Role: "user", Content: transcript},
	})
	if err != nil {
		return FreeForm, "", err
	}
	return Parse(reply), strings.TrimSpace(reply), nil
}

// Parse maps a model reply onto an intent. The match is exact after
// trimming whitespace, checked in priority order.
func Parse(reply string) Intent {
	switch strings.TrimSpace(reply) {
	case string(Logout):
		return Logout
	case string(AskAbout):
		return AskAbout
	case string(LastImage):
		return LastImage
	case string(Repeat):
		return Repeat
	default:
		return FreeForm
	}
}
