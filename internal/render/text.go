package render

import (
	"fmt"
	"strings"

	"ocrdoc/internal/layout"
	"ocrdoc/pkg/models"
)

// Rule is the ten-character divider used by line separators.
var Rule = strings.Repeat("─", 10)

// TextRenderer produces UTF-8 plain text.
type TextRenderer struct{}

func (TextRenderer) Format() Format { return TXT }

// Render encodes results as plain text.
func (TextRenderer) Render(results []models.OCRResult, opts layout.Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	enc := &textEncoder{}
	if err := layout.Drive(layout.Plan(results, opts), enc); err != nil {
		return nil, err
	}
	return []byte(enc.b.String()), nil
}

type textEncoder struct {
	b strings.Builder
}

func (e *textEncoder) Separator(style layout.SeparatorStyle) error {
	switch style {
	case layout.SeparatorLine:
		e.b.WriteString("\n" + Rule + "\n\n")
	case layout.SeparatorSpace:
		e.b.WriteString("\n\n\n")
	default:
		e.b.WriteString("\n")
	}
	return nil
}

func (e *textEncoder) Header(style layout.HeaderStyle, index int, name string) error {
	if style == layout.HeaderNumbered {
		fmt.Fprintf(&e.b, "[%d] %s\n\n", index, name)
	} else {
		fmt.Fprintf(&e.b, "═══ %s ═══\n\n", name)
	}
	return nil
}

func (e *textEncoder) Body(text string, _ []string) error {
	e.b.WriteString(text)
	e.b.WriteString("\n")
	return nil
}

func (e *textEncoder) Spacer() error { return nil }

// CombinedText joins results for copying to a clipboard: line separators
// become a rule, other styles a blank line; headers are "[n] name" lines
// when headers are visible. There is no trailing newline.
func CombinedText(results []models.OCRResult, opts layout.Options) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			if opts.SeparatorStyle == layout.SeparatorLine {
				b.WriteString("\n" + Rule + "\n\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		if opts.HeadersVisible() {
			fmt.Fprintf(&b, "[%d] %s\n", r.SequenceIndex, r.SourceName)
		}
		b.WriteString(strings.TrimSpace(r.Text))
	}
	return b.String()
}
