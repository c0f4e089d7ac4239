package render

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"ocrdoc/internal/layout"
	"ocrdoc/pkg/models"
)

// Page geometry in millimetres.
const (
	PDFMargin        = 20.0
	pdfHeaderReserve = 40.0 // a header needs this much room above the bottom edge
	pdfResultGap     = 5.0
	pdfTabWidth      = 4 // columns per tab stop
	pdfEllipsis      = "..."
)

// PDFRenderer produces paginated A4 documents.
type PDFRenderer struct {
	newCanvas func() (canvas, error)
}

// NewPDFRenderer creates a renderer. An empty fontPath selects the built-in Go fonts.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{newCanvas: func() (canvas, error) {
		return newFpdfCanvas(fontPath)
	}}
}

func (*PDFRenderer) Format() Format { return PDF }

// Render encodes results as PDF.
func (r *PDFRenderer) Render(results []models.OCRResult, opts layout.Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c, err := r.newCanvas()
	if err != nil {
		return nil, err
	}

	enc := newPDFEncoder(c, opts)
	if err := layout.Drive(layout.Plan(results, opts), enc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EffectiveLineHeight is fontSize × 0.5 mm scaled by the spacing multiplier.
func EffectiveLineHeight(opts layout.Options) float64 {
	return float64(opts.FontSize) * 0.5 * opts.LineSpacing.Multiplier()
}

type pdfEncoder struct {
	c          canvas
	fontSize   float64
	lineHeight float64
	pageWidth  float64
	pageHeight float64
	y          float64
}

func newPDFEncoder(c canvas, opts layout.Options) *pdfEncoder {
	w, h := c.PageSize()
	c.AddPage()
	return &pdfEncoder{
		c:          c,
		fontSize:   float64(opts.FontSize),
		lineHeight: EffectiveLineHeight(opts),
		pageWidth:  w,
		pageHeight: h,
		y:          PDFMargin,
	}
}

func (e *pdfEncoder) bottom() float64 {
	return e.pageHeight - PDFMargin
}

func (e *pdfEncoder) newPage() {
	e.c.AddPage()
	e.y = PDFMargin
}

func (e *pdfEncoder) Separator(style layout.SeparatorStyle) error {
	switch style {
	case layout.SeparatorLine:
		if e.y+5 > e.bottom() {
			e.newPage()
		}
		e.y += 5
		e.c.SetDrawColor(150, 150, 150)
		e.c.SetLineWidth(0.3)
		e.c.Line(PDFMargin, e.y, e.pageWidth-PDFMargin, e.y)
		e.y += 8
	case layout.SeparatorSpace:
		e.y += 15
	default:
		e.y += 5
	}
	return nil
}

func (e *pdfEncoder) Header(style layout.HeaderStyle, index int, name string) error {
	if e.y > e.pageHeight-pdfHeaderReserve {
		e.newPage()
	}
	e.c.SetFont(true, e.fontSize)
	width := e.pageWidth - 2*PDFMargin
	if style == layout.HeaderNumbered {
		e.c.Text(PDFMargin, e.y, truncateText("["+strconv.Itoa(index)+"] "+name, width, e.c.TextWidth))
	} else {
		name = truncateText(name, width, e.c.TextWidth)
		e.c.Text((e.pageWidth-e.c.TextWidth(name))/2, e.y, name)
	}
	e.y += e.lineHeight + 3
	return nil
}

func (e *pdfEncoder) Body(_ string, lines []string) error {
	e.c.SetFont(false, e.fontSize)
	width := e.pageWidth - 2*PDFMargin
	for _, line := range lines {
		for _, wrapped := range wrapText(line, width, e.c.TextWidth) {
			if e.y+e.lineHeight > e.bottom() {
				e.newPage()
			}
			e.c.Text(PDFMargin, e.y, wrapped)
			e.y += e.lineHeight
		}
	}
	return nil
}

func (e *pdfEncoder) Spacer() error {
	e.y += pdfResultGap
	return nil
}

// wrapText breaks line into pieces no wider than width. Tabs are expanded
// and runs of spaces between words are kept; the space run at a break is
// dropped. Words wider than width are split between characters. An empty
// line yields one empty piece.
func wrapText(line string, width float64, measure func(string) float64) []string {
	words := splitWords(expandTabs(line))
	if len(words) == 0 {
		return []string{""}
	}

	var out []string
	current := ""
	for _, w := range words {
		word := w.text
		var candidate string
		switch {
		case len(out) == 0 && current == "":
			// Indentation of the first piece is kept.
			candidate = w.gap + word
		case current == "":
			candidate = word
		default:
			candidate = current + w.gap + word
		}
		if measure(candidate) <= width {
			current = candidate
			continue
		}
		if current != "" {
			out = append(out, current)
			current = ""
		}
		for measure(word) > width && utf8.RuneCountInString(word) > 1 {
			cut := fitPrefix(word, width, measure)
			out = append(out, word[:cut])
			word = word[cut:]
		}
		current = word
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

// spacedWord is a word with the run of spaces before it.
type spacedWord struct {
	gap, text string
}

// splitWords splits line at spaces. Trailing spaces are dropped.
func splitWords(line string) []spacedWord {
	var out []spacedWord
	for line != "" {
		rest := strings.TrimLeft(line, " ")
		gap := line[:len(line)-len(rest)]
		end := strings.IndexByte(rest, ' ')
		if end < 0 {
			end = len(rest)
		}
		if end == 0 {
			break
		}
		out = append(out, spacedWord{gap: gap, text: rest[:end]})
		line = rest[end:]
	}
	return out
}

// expandTabs replaces each tab with spaces up to the next tab stop.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := pdfTabWidth - col%pdfTabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// truncateText shortens s with an ellipsis so that it fits in width.
func truncateText(s string, width float64, measure func(string) float64) string {
	if measure(s) <= width {
		return s
	}
	room := width - measure(pdfEllipsis)
	if room <= 0 {
		return s[:fitPrefix(s, width, measure)]
	}
	return s[:fitPrefix(s, room, measure)] + pdfEllipsis
}

// fitPrefix returns the byte length of the longest prefix of word (at least
// one rune) that fits in width.
func fitPrefix(word string, width float64, measure func(string) float64) int {
	cut := 0
	for i, r := range word {
		end := i + utf8.RuneLen(r)
		if cut > 0 && measure(word[:end]) > width {
			break
		}
		cut = end
	}
	return cut
}
