package errors

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "error with cause",
			err: Wrap(KindStorage, "stage", "failed to stage upload",
				errors.New("disk full")),
			contains: []string{"[storage:stage]", "failed to stage upload", "disk full"},
		},
		{
			name:     "error without cause",
			err:      New(KindClientInput, "upload", "invalid image file format"),
			contains: []string{"[client_input:upload]", "invalid image file format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("error string %q does not contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(KindProcessing, "transcode", "wrapped", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Unwrap should return the original error")
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct error kind match",
			err:      New(KindClientInput, "test", "message"),
			kind:     KindClientInput,
			expected: true,
		},
		{
			name:     "wrapped error kind match",
			err:      Wrap(KindProcessing, "test", "message", errors.New("cause")),
			kind:     KindProcessing,
			expected: true,
		},
		{
			name:     "error kind mismatch",
			err:      New(KindNotFound, "test", "message"),
			kind:     KindProcessing,
			expected: false,
		},
		{
			name:     "non-typed error",
			err:      errors.New("plain error"),
			kind:     KindProcessing,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsKind(tt.err, tt.kind)
			if result != tt.expected {
				t.Errorf("IsKind() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"client input", New(KindClientInput, "upload", "bad extension"), http.StatusBadRequest},
		{"not found", New(KindNotFound, "download", "no response audio"), http.StatusNotFound},
		{"processing", New(KindProcessing, "transcode", "ffmpeg failed"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus() = %d, expected %d", got, tt.status)
			}
		})
	}
}

func TestDetail(t *testing.T) {
	if got := Detail(New(KindProcessing, "x", "no cause")); got != "" {
		t.Errorf("Detail() = %q, expected empty", got)
	}
	wrapped := Wrap(KindProcessing, "transcode", "conversion failed", errors.New("exit status 1"))
	if got := Detail(wrapped); got != "exit status 1" {
		t.Errorf("Detail() = %q, expected cause text", got)
	}
}
