package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewAppError("STORAGE_ERROR", "cannot persist result", cause)

	if !errors.Is(err, cause) {
		t.Error("AppError does not unwrap to its cause")
	}
	want := "STORAGE_ERROR: cannot persist result: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := NewAppError("CONFIG_ERROR", "missing url", nil)
	if bare.Error() != "CONFIG_ERROR: missing url" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestFatal(t *testing.T) {
	tests := []struct {
		err   error
		fatal bool
	}{
		{ErrModelNotLoaded, true},
		{ErrUnknownLabel, true},
		{fmt.Errorf("wrapped: %w", ErrModelNotLoaded), true},
		{fmt.Errorf("%w: id 9", ErrUnknownLabel), true},
		{ErrInference, false},
		{ErrTimeout, false},
		{ErrInvalidImage, false},
		{ErrUnsupportedFormat, false},
		{ErrImageTooLarge, false},
		{ErrAlignment, false},
		{errors.New("random"), false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := Fatal(tt.err); got != tt.fatal {
			t.Errorf("Fatal(%v) = %v, want %v", tt.err, got, tt.fatal)
		}
	}
}
