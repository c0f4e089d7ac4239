package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"ocrdoc/internal/language"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/progress"
	"ocrdoc/pkg/models"
)

// chatCompleter is the subset of *openai.Client the recognizer needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIRecognizer implements Recognizer with a vision-capable chat model.
type OpenAIRecognizer struct {
	client chatCompleter
	model  string
	log    zerolog.Logger
}

// NewOpenAI creates a recognizer using the given API key and chat model.
func NewOpenAI(apiKey, chatModel string) (*OpenAIRecognizer, error) {
	if apiKey == "" {
		return nil, NewOCRError("NewOpenAI", ErrMissingCredentials, "OPENAI_API_KEY is required")
	}
	return newOpenAI(openai.NewClient(apiKey), chatModel), nil
}

func newOpenAI(client chatCompleter, chatModel string) *OpenAIRecognizer {
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	return &OpenAIRecognizer{
		client: client,
		model:  chatModel,
		log:    logger.WithComponent("openai"),
	}
}

func (o *OpenAIRecognizer) Name() string { return "openai" }

// Recognize asks the chat model to transcribe the image verbatim.
func (o *OpenAIRecognizer) Recognize(ctx context.Context, img models.ImageInput, model string, onProgress ProgressFunc) (string, error) {
	const op = "OpenAIRecognize"

	if err := checkImage(op, img, MaxImageBytes); err != nil {
		return "", err
	}

	report(onProgress, progress.StageRecognizing, 0)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(model),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Transcribe all text in this image.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    img.DataURL(),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", contextError(op, ctx.Err())
		}
		return "", WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("OpenAI request failed: %v", err))
	}
	if len(resp.Choices) == 0 {
		return "", WrapOCRError(op, ErrRecognitionFailed, "no response choices from OpenAI")
	}
	report(onProgress, progress.StageRecognizing, 1)

	text := resp.Choices[0].Message.Content
	o.log.Debug().
		Str("image", img.Name).
		Str("chat_model", o.model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Int("text_length", len(text)).
		Msg("OpenAI recognition completed")

	return text, nil
}

func systemPrompt(model string) string {
	return fmt.Sprintf(`You are an OCR engine. Return only the text visible in the image, exactly as written, preserving line breaks.
Do not translate, summarize, correct or describe anything. If the image contains no text, return an empty response.
Expected languages: %s.`, strings.Join(language.DisplayNames(model), ", "))
}

// Close is a no-op; the HTTP client needs no cleanup.
func (o *OpenAIRecognizer) Close() error { return nil }
