//go:build !cgo

package ocr

import (
	"context"

	"ocrdoc/pkg/models"
)

// TesseractConfig configures the local Tesseract engine.
type TesseractConfig struct {
	TessdataPrefix string
	PageSegMode    int
}

// TesseractRecognizer reports that Tesseract is unavailable in builds without cgo.
type TesseractRecognizer struct{}

// NewTesseract returns a recognizer that always fails.
func NewTesseract(TesseractConfig) *TesseractRecognizer {
	return &TesseractRecognizer{}
}

func (t *TesseractRecognizer) Name() string { return "tesseract" }

// Recognize always fails: the binary was built with CGO_ENABLED=0.
func (t *TesseractRecognizer) Recognize(context.Context, models.ImageInput, string, ProgressFunc) (string, error) {
	return "", NewOCRError("TesseractRecognize", ErrRecognitionFailed, "tesseract support requires a cgo build")
}

func (t *TesseractRecognizer) Close() error { return nil }
