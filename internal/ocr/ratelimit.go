package ocr

import (
	"context"

	"golang.org/x/time/rate"

	"ocrdoc/pkg/models"
)

// RateLimitedRecognizer spaces out calls to a metered engine.
type RateLimitedRecognizer struct {
	next    Recognizer
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls with the given burst.
func NewRateLimited(next Recognizer, perSecond float64, burst int) *RateLimitedRecognizer {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedRecognizer{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimitedRecognizer) Name() string { return r.next.Name() }

// Recognize waits for a token, then delegates.
func (r *RateLimitedRecognizer) Recognize(ctx context.Context, img models.ImageInput, model string, onProgress ProgressFunc) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", contextError("RateLimitWait", err)
	}
	return r.next.Recognize(ctx, img, model, onProgress)
}

func (r *RateLimitedRecognizer) Close() error { return r.next.Close() }
