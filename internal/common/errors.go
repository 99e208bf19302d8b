package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors with a stable code.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error kinds. Classify with errors.Is; wrap with fmt.Errorf("...: %w").
var (
	// ErrInvalidInput marks rejected caller input, including bad
	// configuration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidImage marks an image that decoded badly or has dimensions
	// outside the accepted range.
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnsupportedFormat marks input outside {PNG, JPG, JPEG, TIFF, PDF}.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrImageTooLarge / ErrImageTooSmall mark size-bound violations
	// (byte size, pixel dimensions or PDF page count).
	ErrImageTooLarge = errors.New("image too large")
	ErrImageTooSmall = errors.New("image too small")

	// ErrModelNotLoaded means classification was requested before warm-up
	// succeeded. Fatal: aborts the enclosing document or batch.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrInference wraps backend classification failures. The page is marked
	// failed; remaining pages continue.
	ErrInference = errors.New("inference failed")

	// ErrTimeout marks an inference call that exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrUnknownLabel means the model emitted a label id outside the
	// configured label set. Fatal: indicates a model/config mismatch.
	ErrUnknownLabel = errors.New("unknown label id")

	// ErrAlignment means the prediction sequence length does not match the
	// encoded token sequence length.
	ErrAlignment = errors.New("token/prediction length mismatch")
)

// Fatal reports whether err is a configuration-class failure that must abort
// the enclosing document or batch instead of being recorded per page.
func Fatal(err error) bool {
	return errors.Is(err, ErrModelNotLoaded) || errors.Is(err, ErrUnknownLabel)
}
