// Package pipeline runs a batch of images through one recognizer.
//
// Images are processed strictly one after another in input order, all with
// the same combined language model. The batch either produces one result per
// image or fails as a whole; partial results are never returned.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ocrdoc/internal/language"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/ocr"
	"ocrdoc/internal/progress"
	"ocrdoc/pkg/models"
)

// ErrNoImages is returned for an empty batch.
var ErrNoImages = errors.New("no images to process")

// ErrNoLanguages is returned when no recognition language is selected.
var ErrNoLanguages = language.ErrNoLanguages

// RecognitionError reports which image aborted a batch.
type RecognitionError struct {
	Index int    // 1-based position of the failing image
	Name  string // Source name of the failing image
	Err   error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed for image %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// Pipeline binds a recognizer to batch processing.
type Pipeline struct {
	rec ocr.Recognizer
}

// New creates a pipeline around rec.
func New(rec ocr.Recognizer) *Pipeline {
	return &Pipeline{rec: rec}
}

// Run recognizes images in order with the combined model built from
// languageCodes. onProgress, when non-nil, receives batch-wide events whose
// fraction never decreases and reaches 1.0 only after the last result is
// appended. The context is checked before every image.
func (p *Pipeline) Run(ctx context.Context, images []models.ImageInput, languageCodes []string, onProgress progress.Func) ([]models.OCRResult, error) {
	log := logger.WithComponent("pipeline")

	if len(images) == 0 {
		return nil, ErrNoImages
	}
	model, err := language.Combine(languageCodes)
	if err != nil {
		return nil, err
	}

	tracker := progress.NewTracker(len(images), onProgress)
	results := make([]models.OCRResult, 0, len(images))
	start := time.Now()

	log.Info().
		Int("images", len(images)).
		Str("model", model).
		Str("engine", p.rec.Name()).
		Msg("Starting recognition batch")

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			rerr := &RecognitionError{Index: i + 1, Name: img.Name, Err: ocr.WrapOCRError("Run", fmt.Errorf("%w: %w", ocr.ErrContextCanceled, err), "")}
			tracker.Fail(rerr)
			return nil, rerr
		}

		tracker.Start(i, img.Name)
		imageStart := time.Now()

		text, err := p.rec.Recognize(ctx, img, model, func(pr ocr.Progress) {
			tracker.Update(i, img.Name, pr.Stage, pr.Fraction)
		})
		if err != nil {
			rerr := &RecognitionError{Index: i + 1, Name: img.Name, Err: err}
			log.Error().
				Err(err).
				Int("index", i+1).
				Str("image", img.Name).
				Msg("Recognition failed, aborting batch")
			tracker.Fail(rerr)
			return nil, rerr
		}

		results = append(results, models.OCRResult{
			SourceImage:   img.DataURL(),
			Text:          strings.TrimSpace(text),
			SequenceIndex: i + 1,
			SourceName:    img.Name,
		})

		log.Debug().
			Int("index", i+1).
			Str("image", img.Name).
			Dur("duration", time.Since(imageStart)).
			Msg("Image recognized")
	}

	tracker.Finish()

	log.Info().
		Int("images", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Recognition batch completed")

	return results, nil
}
