package ocr

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"ocrdoc/internal/language"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/progress"
	"ocrdoc/pkg/models"
)

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// GoogleVisionRecognizer implements Recognizer using Google Cloud Vision API.
type GoogleVisionRecognizer struct {
	client   *vision.ImageAnnotatorClient
	annotate annotateFunc
	log      zerolog.Logger
}

// NewGoogleVision creates a Vision recognizer with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVision(ctx context.Context) (*GoogleVisionRecognizer, error) {
	const op = "NewGoogleVision"

	opts := googleClientOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	r := newGoogleVision(func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return client.BatchAnnotateImages(ctx, req)
	})
	r.client = client
	return r, nil
}

func newGoogleVision(annotate annotateFunc) *GoogleVisionRecognizer {
	return &GoogleVisionRecognizer{
		annotate: annotate,
		log:      logger.WithComponent("google-vision"),
	}
}

func (g *GoogleVisionRecognizer) Name() string { return "google-vision" }

// Recognize runs document text detection on one image. The combined model
// identifier is sent as language hints.
func (g *GoogleVisionRecognizer) Recognize(ctx context.Context, img models.ImageInput, model string, onProgress ProgressFunc) (string, error) {
	const op = "GoogleVisionRecognize"

	if err := checkImage(op, img, MaxImageBytes); err != nil {
		return "", err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: img.Data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: language.Hints(model),
				},
			},
		},
	}

	report(onProgress, progress.StageRecognizing, 0)
	resp, err := g.annotate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", contextError(op, ctx.Err())
		}
		return "", WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	if len(resp.GetResponses()) == 0 {
		return "", WrapOCRError(op, ErrRecognitionFailed, "no response from Vision API")
	}
	imgResp := resp.GetResponses()[0]
	if imgResp.GetError() != nil && imgResp.GetError().GetMessage() != "" {
		return "", WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", imgResp.GetError().GetMessage()))
	}
	report(onProgress, progress.StageRecognizing, 1)

	text := imgResp.GetFullTextAnnotation().GetText()
	if text == "" {
		// Sparse images only yield plain text annotations; the first one holds the full text.
		if anns := imgResp.GetTextAnnotations(); len(anns) > 0 {
			text = anns[0].GetDescription()
		}
	}

	g.log.Debug().
		Str("image", img.Name).
		Strs("hints", req.Requests[0].ImageContext.LanguageHints).
		Int("text_length", len(text)).
		Int("pages", len(imgResp.GetFullTextAnnotation().GetPages())).
		Msg("Vision recognition completed")

	return strings.TrimRight(text, "\n"), nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionRecognizer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
