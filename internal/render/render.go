// Package render encodes recognition results into export formats.
//
// Every renderer consumes the same block sequence from the layout package,
// so separators and headers appear in the same places in every format;
// renderers only decide how each block looks.
package render

import (
	"errors"
	"fmt"
	"strings"

	"ocrdoc/internal/layout"
	"ocrdoc/pkg/models"
)

// ErrUnknownFormat is returned for unsupported export formats.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export file format.
type Format string

const (
	TXT  Format = "txt"
	DOCX Format = "docx"
	PDF  Format = "pdf"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{TXT, DOCX, PDF}
}

// ParseFormat accepts a format name case-insensitively, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case TXT, DOCX, PDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the media type of the format.
func (f Format) ContentType() string {
	switch f {
	case TXT:
		return "text/plain; charset=utf-8"
	case DOCX:
		return docxContentType
	case PDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Renderer encodes a result list under format options.
type Renderer interface {
	Format() Format
	Render(results []models.OCRResult, opts layout.Options) ([]byte, error)
}

type settings struct {
	pdfFontPath string
}

// Option configures renderers created by ForFormat.
type Option func(*settings)

// WithPDFFont makes the PDF renderer embed the UTF-8 TrueType font at path
// instead of the built-in Go fonts.
func WithPDFFont(path string) Option {
	return func(s *settings) {
		s.pdfFontPath = path
	}
}

// ForFormat returns the renderer for f.
func ForFormat(f Format, opts ...Option) (Renderer, error) {
	var s settings
	for _, o := range opts {
		o(&s)
	}
	switch f {
	case TXT:
		return TextRenderer{}, nil
	case DOCX:
		return DocxRenderer{}, nil
	case PDF:
		return NewPDFRenderer(s.pdfFontPath), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
