package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"ocrdoc/internal/language"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/progress"
	"ocrdoc/pkg/models"
)

// DocumentAIConfig holds the processor coordinates.
type DocumentAIConfig struct {
	ProjectID   string
	Location    string // "us" or "eu"
	ProcessorID string
	Timeout     time.Duration
}

type processFunc func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)

// DocumentAIRecognizer implements Recognizer with a Document AI OCR processor.
type DocumentAIRecognizer struct {
	client  *documentai.DocumentProcessorClient
	process processFunc
	config  DocumentAIConfig
	log     zerolog.Logger
}

// NewDocumentAI creates a recognizer for the configured OCR processor.
func NewDocumentAI(ctx context.Context, config DocumentAIConfig) (*DocumentAIRecognizer, error) {
	const op = "NewDocumentAI"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, NewOCRError(op, ErrMissingCredentials, "GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	clientOptions := googleClientOptions()
	hasCredentials := len(clientOptions) > 0
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if !hasCredentials {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	r := newDocumentAI(config, func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
		return client.ProcessDocument(ctx, req)
	})
	r.client = client
	return r, nil
}

func newDocumentAI(config DocumentAIConfig, process processFunc) *DocumentAIRecognizer {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &DocumentAIRecognizer{
		process: process,
		config:  config,
		log:     logger.WithComponent("document-ai"),
	}
}

func (d *DocumentAIRecognizer) Name() string { return "document-ai" }

// Recognize sends one image to the OCR processor.
func (d *DocumentAIRecognizer) Recognize(ctx context.Context, img models.ImageInput, model string, onProgress ProgressFunc) (string, error) {
	const op = "DocumentAIRecognize"

	if err := checkImage(op, img, MaxImageBytes); err != nil {
		return "", err
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  img.Data,
				MimeType: img.MediaType,
			},
		},
		ProcessOptions: &documentaipb.ProcessOptions{
			OcrConfig: &documentaipb.OcrConfig{
				Hints: &documentaipb.OcrConfig_Hints{
					LanguageHints: language.Hints(model),
				},
			},
		},
	}

	report(onProgress, progress.StageRecognizing, 0)
	resp, err := d.process(processCtx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", contextError(op, ctx.Err())
		}
		return "", d.handleProcessingError(op, err)
	}
	if resp.GetDocument() == nil {
		return "", WrapOCRError(op, ErrRecognitionFailed, "no document in response")
	}
	report(onProgress, progress.StageRecognizing, 1)

	text := resp.GetDocument().GetText()
	d.log.Debug().
		Str("image", img.Name).
		Str("processor", d.config.ProcessorID).
		Int("pages", len(resp.GetDocument().GetPages())).
		Int("text_length", len(text)).
		Msg("Document AI recognition completed")

	return text, nil
}

// processorName constructs the full processor name for Document AI API.
func (d *DocumentAIRecognizer) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
}

// handleProcessingError converts Document AI errors to recognition errors.
func (d *DocumentAIRecognizer) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"), strings.Contains(errStr, "PermissionDenied"):
		return WrapOCRError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NOT_FOUND"), strings.Contains(errStr, "NotFound"):
		return WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("processor not found: %s", d.config.ProcessorID))
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapOCRError(op, ErrRecognitionFailed, "processing timeout")
	default:
		return WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (d *DocumentAIRecognizer) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
