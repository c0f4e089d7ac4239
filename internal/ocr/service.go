// Package ocr provides text recognition for single images.
//
// Every engine implements Recognizer: it receives one image, one combined
// language model identifier ("tur+eng") and an optional progress callback,
// and returns the raw recognized text. Engines are selected by name with New:
//   - tesseract: local Tesseract via gosseract (default)
//   - google-vision: Google Cloud Vision document text detection
//   - document-ai: Google Document AI OCR processor
//   - openai: OpenAI vision chat completion
//
// Cloud engines can be wrapped with a rate limiter, and any engine with a
// Redis-backed cache keyed by engine, model and image content.
//
// Required Environment Variables (cloud engines only):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID: Document AI
//   - OPENAI_API_KEY: OpenAI
package ocr

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"

	"ocrdoc/pkg/models"
)

// MaxImageBytes is the largest image sent inline to a cloud engine.
const MaxImageBytes = 20 * 1024 * 1024

// Progress is one intra-image tick from an engine.
type Progress struct {
	Stage    string  // Engine stage, e.g. "recognizing text"
	Fraction float64 // Stage completion in [0, 1]
}

// ProgressFunc receives engine ticks. It may be nil.
type ProgressFunc func(Progress)

// Recognizer defines the interface for text recognition engines.
type Recognizer interface {
	// Name returns the engine identifier.
	Name() string

	// Recognize extracts text from one image using the combined model identifier.
	// The returned text is not trimmed.
	Recognize(ctx context.Context, img models.ImageInput, model string, onProgress ProgressFunc) (string, error)

	// Close releases engine resources.
	Close() error
}

func report(onProgress ProgressFunc, stage string, fraction float64) {
	if onProgress != nil {
		onProgress(Progress{Stage: stage, Fraction: fraction})
	}
}

// checkImage validates what every engine requires of an input.
func checkImage(op string, img models.ImageInput, limit int) error {
	if len(img.Data) == 0 {
		return NewOCRError(op, ErrEmptyImage, img.Name)
	}
	if limit > 0 && len(img.Data) > limit {
		return NewOCRError(op, ErrImageTooLarge, fmt.Sprintf("%s: %d bytes", img.Name, len(img.Data)))
	}
	return nil
}

// googleClientOptions builds client options from the credential environment.
// An empty result means application default credentials.
func googleClientOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}
