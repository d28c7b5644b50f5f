package service

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Renderer turns shopping list lines into a downloadable document
type Renderer interface {
	Render(lines []string) ([]byte, error)
	ContentType() string
	FileName() string
}

// PDFRenderer writes one line per cell on A4 pages.
// Without a TTF font only the cp1252 range renders correctly.
type PDFRenderer struct {
	fontPath string
}

func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{fontPath: fontPath}
}

// Supports reports whether every line can be drawn with the configured font.
// A TTF font covers everything, the core font only cp1252.
func (r *PDFRenderer) Supports(lines []string) bool {
	if r.fontPath != "" {
		return true
	}
	enc := charmap.Windows1252.NewEncoder()
	for _, line := range lines {
		if _, err := enc.String(line); err != nil {
			return false
		}
	}
	return true
}

func (r *PDFRenderer) Render(lines []string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Shopping list", true)

	family := "Helvetica"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if r.fontPath != "" {
		family = "body"
		pdf.AddUTF8Font(family, "", r.fontPath)
		translate = func(s string) string { return s }
	}

	pdf.AddPage()
	pdf.SetFont(family, "", 12)
	for _, line := range lines {
		pdf.CellFormat(0, 8, translate(line), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to render shopping list PDF")
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }
func (r *PDFRenderer) FileName() string    { return "shopping_list.pdf" }

// TextRenderer writes the lines as plain text
type TextRenderer struct{}

func (TextRenderer) Render(lines []string) ([]byte, error) {
	if len(lines) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }
func (TextRenderer) FileName() string    { return "shopping_list.txt" }
