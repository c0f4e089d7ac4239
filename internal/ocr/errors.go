package ocr

import (
	"errors"
	"fmt"
)

// Common recognition errors
var (
	// ErrRecognitionFailed is returned when an engine fails to recognize an image.
	ErrRecognitionFailed = errors.New("text recognition failed")

	// ErrUnsupportedLanguage is returned when the engine cannot load a requested language model.
	ErrUnsupportedLanguage = errors.New("recognition language is not available")

	// ErrMissingCredentials is returned when a cloud engine has no usable credentials.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrEmptyImage is returned for images without any data.
	ErrEmptyImage = errors.New("image contains no data")

	// ErrImageTooLarge is returned when the image exceeds the engine's request limit.
	// Google Cloud Vision and Document AI accept at most 20MB inline.
	ErrImageTooLarge = errors.New("image exceeds the maximum size limit (20MB)")

	// ErrContextCanceled is returned when the context is canceled during recognition.
	ErrContextCanceled = errors.New("recognition was canceled")

	// ErrUnknownEngine is returned by New for an unrecognized engine name.
	ErrUnknownEngine = errors.New("unknown recognition engine")
)

// OCRError wraps errors with additional context about the recognition failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "Recognize", "NewGoogleVision").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return NewOCRError(op, err, details)
}

// contextError maps a finished context to ErrContextCanceled, keeping the cause.
func contextError(op string, err error) error {
	return NewOCRError(op, fmt.Errorf("%w: %w", ErrContextCanceled, err), "")
}
