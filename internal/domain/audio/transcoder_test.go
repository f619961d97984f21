package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWavArgs(t *testing.T) {
	args := wavArgs("in.webm", "out.wav")
	assert.Equal(t, []string{"-y", "-i", "in.webm", "-ar", "16000", "-ac", "1", "out.wav"}, args)
}

func TestGainArgs(t *testing.T) {
	args := gainArgs("in.mp3", "out.mp3", 5)
	assert.Equal(t, []string{"-y", "-i", "in.mp3", "-filter:a", "volume=5dB", "out.mp3"}, args)

	args = gainArgs("in.mp3", "out.mp3", 2.5)
	assert.Contains(t, args, "volume=2.5dB")
}

func TestLastLine(t *testing.T) {
	out := []byte("frame info\nmore info\nConversion failed!\n")
	assert.Equal(t, "Conversion failed!", lastLine(out))
	assert.Equal(t, "", lastLine(nil))
}

func TestBoost_ZeroGainIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.mp3")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	// Binary that does not exist would fail if it were invoked.
	tr := NewTranscoder().WithBinary("/nonexistent/ffmpeg")
	require.NoError(t, tr.Boost(context.Background(), path, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}

func TestToWAV_MissingBinary(t *testing.T) {
	tr := NewTranscoder().WithBinary("/nonexistent/ffmpeg")
	err := tr.ToWAV(context.Background(), "in.webm", "out.wav")
	assert.Error(t, err)
}

func TestDuration_NotAnMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))

	_, err := Duration(path)
	assert.Error(t, err)
}
