//go:build cgo

package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"ocrdoc/internal/ingest"
	"ocrdoc/internal/language"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/progress"
	"ocrdoc/pkg/models"
)

// TesseractConfig configures the local Tesseract engine.
type TesseractConfig struct {
	TessdataPrefix string // Directory holding *.traineddata, empty for the system default
	PageSegMode    int    // 0 keeps the engine default
}

// TesseractRecognizer implements Recognizer with the gosseract client.
// A fresh client is created per image so concurrent sessions never share one.
type TesseractRecognizer struct {
	config        TesseractConfig
	clientFactory func() *gosseract.Client
	log           zerolog.Logger
}

// NewTesseract constructs a Tesseract-backed recognizer.
func NewTesseract(config TesseractConfig) *TesseractRecognizer {
	return &TesseractRecognizer{
		config:        config,
		clientFactory: gosseract.NewClient,
		log:           logger.WithComponent("tesseract"),
	}
}

func (t *TesseractRecognizer) Name() string { return "tesseract" }

// Recognize runs Tesseract on one image.
func (t *TesseractRecognizer) Recognize(ctx context.Context, img models.ImageInput, model string, onProgress ProgressFunc) (string, error) {
	const op = "TesseractRecognize"

	if err := checkImage(op, img, 0); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", contextError(op, err)
	}

	// Leptonica reliably reads these; everything else goes through PNG.
	img, err := ingest.Normalize(img, ingest.MediaPNG, ingest.MediaJPEG, ingest.MediaTIFF, ingest.MediaBMP)
	if err != nil {
		return "", WrapOCRError(op, err, "failed to prepare image")
	}

	client := t.clientFactory()
	defer client.Close()

	report(onProgress, progress.StageLoading, 0)
	if t.config.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.config.TessdataPrefix); err != nil {
			return "", WrapOCRError(op, err, "failed to set tessdata path")
		}
	}
	if err := client.SetLanguage(language.Split(model)...); err != nil {
		return "", NewOCRError(op, ErrUnsupportedLanguage, model)
	}
	if t.config.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.config.PageSegMode)); err != nil {
			return "", WrapOCRError(op, err, "failed to set page segmentation mode")
		}
	}
	report(onProgress, progress.StageLoading, 1)

	if err := client.SetImageFromBytes(img.Data); err != nil {
		return "", WrapOCRError(op, ErrRecognitionFailed, "failed to set image: "+err.Error())
	}

	report(onProgress, progress.StageRecognizing, 0)
	text, err := client.Text()
	if err != nil {
		if strings.Contains(err.Error(), "traineddata") || strings.Contains(err.Error(), "language") {
			return "", NewOCRError(op, ErrUnsupportedLanguage, err.Error())
		}
		return "", WrapOCRError(op, ErrRecognitionFailed, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return "", contextError(op, err)
	}
	report(onProgress, progress.StageRecognizing, 1)

	t.log.Debug().
		Str("image", img.Name).
		Str("model", model).
		Int("text_length", len(text)).
		Msg("Tesseract recognition completed")

	return text, nil
}

// Close is a no-op; clients are released after every image.
func (t *TesseractRecognizer) Close() error { return nil }
