package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 190.0

// Field is a label/value line printed above or below the tables.
type Field struct {
	Label string
	Value string
}

// Section is one headed table with an optional footer line.
type Section struct {
	Heading string
	Table   Dataset
	Footer  string
}

// Document describes a printable report.
type Document struct {
	Title    string
	Subtitle string
	Fields   []Field
	Sections []Section
	Summary  []Field
}

// PDFExporter renders documents into A4 PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays out the document and returns the PDF bytes.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	for _, section := range doc.Sections {
		if err := section.Table.Validate(); err != nil {
			return nil, fmt.Errorf("section %q: %w", section.Heading, err)
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, doc.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	writeFields(pdf, doc.Fields)

	for _, section := range doc.Sections {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, section.Heading, "", 1, "", false, 0, "")
		writeTable(pdf, section.Table)
		if section.Footer != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 7, section.Footer, "", 1, "R", false, 0, "")
		}
	}

	if len(doc.Summary) > 0 {
		pdf.Ln(4)
		writeFields(pdf, doc.Summary)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFields(pdf *gofpdf.Fpdf, fields []Field) {
	for _, f := range fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, f.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, f.Value, "", 1, "", false, 0, "")
	}
}

func writeTable(pdf *gofpdf.Fpdf, data Dataset) {
	widths := columnWidths(data)

	pdf.SetFont("Arial", "B", 9)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for i, value := range row {
			pdf.CellFormat(widths[i], 6, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func columnWidths(data Dataset) []float64 {
	widths := make([]float64, len(data.Headers))
	if len(data.Widths) == 0 {
		for i := range widths {
			widths[i] = pageWidth / float64(len(widths))
		}
		return widths
	}
	var total float64
	for _, w := range data.Widths {
		total += w
	}
	for i, w := range data.Widths {
		widths[i] = pageWidth * w / total
	}
	return widths
}
