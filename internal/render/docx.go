package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"

	"ocrdoc/internal/layout"
	"ocrdoc/pkg/models"
)

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxMarginTwips = 1134 // 2cm
	docxRuleColor   = "999999"

	// A4 portrait in twips.
	docxPageWidth  = 11906
	docxPageHeight = 16838
)

// DocxRenderer produces a WordprocessingML document.
type DocxRenderer struct{}

func (DocxRenderer) Format() Format { return DOCX }

// Render encodes results as .docx.
func (DocxRenderer) Render(results []models.OCRResult, opts layout.Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	enc, err := newDocxEncoder(opts)
	if err != nil {
		return nil, err
	}
	if err := layout.Drive(layout.Plan(results, opts), enc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := enc.doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return buf.Bytes(), nil
}

// DocxLine maps line spacing to 240ths of a line: 240, 276 or 480.
func DocxLine(s layout.LineSpacing) int {
	switch s {
	case layout.SpacingSingle:
		return 240
	case layout.SpacingDouble:
		return 480
	}
	return 276
}

type docxEncoder struct {
	doc  *docx.RootDoc
	size uint64 // points
	line int
}

func newDocxEncoder(opts layout.Options) (*docxEncoder, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	if doc.Document != nil && doc.Document.Body != nil && doc.Document.Body.SectPr != nil {
		sect := doc.Document.Body.SectPr
		w, h := uint64(docxPageWidth), uint64(docxPageHeight)
		sect.PageSize = &ctypes.PageSize{Width: &w, Height: &h}
		m := docxMarginTwips
		sect.PageMargin = &ctypes.PageMargin{Top: &m, Right: &m, Bottom: &m, Left: &m}
	}
	return &docxEncoder{
		doc:  doc,
		size: uint64(opts.FontSize),
		line: DocxLine(opts.LineSpacing),
	}, nil
}

// setSpacing sets before/after spacing in twips. A positive line adds an
// "auto" line rule.
func setSpacing(p *docx.Paragraph, before, after uint64, line int) {
	ct := p.GetCT()
	if ct.Property == nil {
		ct.Property = ctypes.DefaultParaProperty()
	}
	s := &ctypes.Spacing{Before: &before, After: &after}
	if line > 0 {
		rule := stypes.LineSpacingRuleAuto
		s.Line = &line
		s.LineRule = &rule
	}
	ct.Property.Spacing = s
}

func (e *docxEncoder) Separator(style layout.SeparatorStyle) error {
	p := e.doc.AddEmptyParagraph()
	switch style {
	case layout.SeparatorLine:
		p.AddText(Rule).Color(docxRuleColor).Size(e.size)
		setSpacing(p, 300, 300, 0)
	case layout.SeparatorSpace:
		setSpacing(p, 400, 400, 0)
	}
	return nil
}

func (e *docxEncoder) Header(style layout.HeaderStyle, index int, name string) error {
	p := e.doc.AddEmptyParagraph()
	if style == layout.HeaderNumbered {
		p.AddText("[" + strconv.Itoa(index) + "] ").Bold(true).Size(e.size)
		p.AddText(name).Italic(true).Size(e.size)
		setSpacing(p, 0, 200, 0)
		return nil
	}

	var before uint64
	if index > 1 {
		before = 400
	}
	p.AddText(name).Bold(true).Size(e.size + 2)
	p.Justification(stypes.JustificationCenter)
	setSpacing(p, before, 200, 0)
	return nil
}

func (e *docxEncoder) Body(_ string, lines []string) error {
	for _, l := range lines {
		if l == "" {
			// Keeps blank lines visible in every word processor.
			l = " "
		}
		p := e.doc.AddEmptyParagraph()
		p.AddText(l).Size(e.size)
		setSpacing(p, 0, e.size, e.line)
	}
	return nil
}

func (e *docxEncoder) Spacer() error { return nil }
