// Package audio shells out to ffmpeg for the two conversions the
// pipeline needs: browser WebM recordings to WAV for transcription, and
// a loudness boost on synthesized MP3 responses.
package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"

	"envisonet-server-go/internal/platform/errors"
)

const defaultTimeout = 30 * time.Second

// Transcoder wraps the ffmpeg binary.
type Transcoder struct {
	ffmpegPath string
	timeout    time.Duration
}

func NewTranscoder() *Transcoder {
	return &Transcoder{
		ffmpegPath: "ffmpeg",
		timeout:    defaultTimeout,
	}
}

// WithBinary overrides the ffmpeg executable path (useful for tests).
func (t *Transcoder) WithBinary(path string) *Transcoder {
	if path != "" {
		t.ffmpegPath = path
	}
	return t
}

// ToWAV converts a WebM recording into 16 kHz mono WAV at dst.
func (t *Transcoder) ToWAV(ctx context.Context, src, dst string) error {
	if err := t.run(ctx, wavArgs(src, dst)); err != nil {
		return errors.Wrap(errors.KindProcessing, "audio.to_wav", "failed to convert audio to wav", err)
	}
	return nil
}

// Boost raises the volume of an MP3 file in place by gainDB decibels.
func (t *Transcoder) Boost(ctx context.Context, path string, gainDB float64) error {
	if gainDB == 0 {
		return nil
	}

	tmp := path + ".boost.mp3"
	if err := t.run(ctx, gainArgs(path, tmp, gainDB)); err != nil {
		return errors.Wrap(errors.KindProcessing, "audio.boost", "failed to apply gain", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(errors.KindProcessing, "audio.boost", "failed to replace boosted file", err)
	}
	return nil
}

func (t *Transcoder) run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%v: %s", err, lastLine(out))
	}
	return nil
}

func wavArgs(src, dst string) []string {
	return []string{"-y", "-i", src, "-ar", "16000", "-ac", "1", dst}
}

func gainArgs(src, dst string, gainDB float64) []string {
	return []string{"-y", "-i", src, "-filter:a", fmt.Sprintf("volume=%gdB", gainDB), dst}
}

// lastLine extracts the final non-empty line of ffmpeg output, which is
// where it reports its actual failure.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// Duration reports the playing time of an MP3 file.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(errors.KindProcessing, "audio.duration", "failed to open mp3", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, errors.Wrap(errors.KindProcessing, "audio.duration", "failed to decode mp3", err)
	}

	// Length is in bytes of 16-bit stereo PCM: 4 bytes per sample.
	samples := decoder.Length() / 4
	seconds := float64(samples) / float64(decoder.SampleRate())
	return time.Duration(seconds * float64(time.Second)), nil
}
