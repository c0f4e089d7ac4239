package render

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// canvas is the drawing surface the PDF encoder targets. Units are millimetres,
// y grows downwards and Text positions the baseline.
type canvas interface {
	PageSize() (width, height float64)
	AddPage()
	SetFont(bold bool, size float64)
	SetDrawColor(r, g, b int)
	SetLineWidth(w float64)
	Line(x1, y1, x2, y2 float64)
	Text(x, y float64, s string)
	TextWidth(s string) float64
	Output(w io.Writer) error
}

// pdfEpoch is written as creation and modification date.
var pdfEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const pdfFontFamily = "ocrdoc"

// fpdfCanvas draws with go-pdf/fpdf on A4 portrait pages.
type fpdfCanvas struct {
	pdf *fpdf.Fpdf
}

// newFpdfCanvas creates a document. All text is written as UTF-8 with an
// embedded TrueType font: the file at fontPath, or the Go font family
// (which covers Latin Extended, Greek and Cyrillic) when fontPath is empty.
func newFpdfCanvas(fontPath string) (*fpdfCanvas, error) {
	// fpdf resolves font files relative to its font directory.
	fontDir, fontFile := "", ""
	if fontPath != "" {
		fontDir, fontFile = filepath.Split(fontPath)
	}
	pdf := fpdf.New("P", "mm", "A4", fontDir)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetModificationDate(pdfEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("ocrdoc", true)

	if fontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", fontFile)
		pdf.AddUTF8Font(pdfFontFamily, "B", fontFile)
	} else {
		pdf.AddUTF8FontFromBytes(pdfFontFamily, "", goregular.TTF)
		pdf.AddUTF8FontFromBytes(pdfFontFamily, "B", gobold.TTF)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to initialise PDF font: %w", err)
	}
	return &fpdfCanvas{pdf: pdf}, nil
}

func (c *fpdfCanvas) PageSize() (float64, float64) {
	w, h := c.pdf.GetPageSize()
	return w, h
}

func (c *fpdfCanvas) AddPage() { c.pdf.AddPage() }

func (c *fpdfCanvas) SetFont(bold bool, size float64) {
	style := ""
	if bold {
		style = "B"
	}
	c.pdf.SetFont(pdfFontFamily, style, size)
}

func (c *fpdfCanvas) SetDrawColor(r, g, b int) { c.pdf.SetDrawColor(r, g, b) }

func (c *fpdfCanvas) SetLineWidth(w float64) { c.pdf.SetLineWidth(w) }

func (c *fpdfCanvas) Line(x1, y1, x2, y2 float64) { c.pdf.Line(x1, y1, x2, y2) }

func (c *fpdfCanvas) Text(x, y float64, s string) { c.pdf.Text(x, y, s) }

func (c *fpdfCanvas) TextWidth(s string) float64 { return c.pdf.GetStringWidth(s) }

func (c *fpdfCanvas) Output(w io.Writer) error {
	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
