package ocr

import (
	"context"
	"fmt"

	"ocrdoc/internal/config"
	"ocrdoc/internal/logger"
)

// New builds the recognizer selected by cfg.Engine, wrapped with rate
// limiting (cloud engines, when OCR_RATE_LIMIT > 0) and caching (when REDIS_URL is set).
func New(ctx context.Context, cfg *config.Config) (Recognizer, error) {
	const op = "New"
	log := logger.WithComponent("ocr")

	if err := cfg.ValidateEngine(); err != nil {
		return nil, NewOCRError(op, ErrMissingCredentials, err.Error())
	}

	var (
		rec   Recognizer
		err   error
		cloud = true
	)
	switch cfg.Engine {
	case config.EngineTesseract:
		rec = NewTesseract(TesseractConfig{
			TessdataPrefix: cfg.TessdataPath,
			PageSegMode:    cfg.TesseractPSM,
		})
		cloud = false
	case config.EngineGoogleVision:
		rec, err = NewGoogleVision(ctx)
	case config.EngineDocumentAI:
		rec, err = NewDocumentAI(ctx, DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
	case config.EngineOpenAI:
		rec, err = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		return nil, NewOCRError(op, ErrUnknownEngine, cfg.Engine)
	}
	if err != nil {
		return nil, err
	}

	if cloud && cfg.RateLimit > 0 {
		rec = NewRateLimited(rec, cfg.RateLimit, cfg.RateBurst)
	}

	if cfg.RedisURL != "" {
		store, err := NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			rec.Close()
			return nil, WrapOCRError(op, err, "recognition cache unavailable")
		}
		rec = NewCached(rec, store, cfg.CacheTTL)
	}

	log.Info().
		Str("engine", rec.Name()).
		Bool("cached", cfg.RedisURL != "").
		Float64("rate_limit", cfg.RateLimit).
		Msg("Recognition engine ready")

	return rec, nil
}

// Describe returns a short label for an engine name, used in help output.
func Describe(engine string) string {
	switch engine {
	case config.EngineTesseract:
		return "local Tesseract (gosseract)"
	case config.EngineGoogleVision:
		return "Google Cloud Vision document text detection"
	case config.EngineDocumentAI:
		return "Google Document AI OCR processor"
	case config.EngineOpenAI:
		return "OpenAI vision chat model"
	}
	return fmt.Sprintf("unknown engine %q", engine)
}
