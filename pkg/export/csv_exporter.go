package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Dataset is a titled table. Rows are positional and must match Headers in width.
type Dataset struct {
	Headers []string
	Rows    [][]string
	// Widths are optional relative column weights used by the PDF renderer.
	Widths []float64
}

// Validate checks that every row matches the header width.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	if len(d.Widths) != 0 && len(d.Widths) != len(d.Headers) {
		return fmt.Errorf("dataset has %d widths for %d headers", len(d.Widths), len(d.Headers))
	}
	return nil
}

// CSVExporter renders datasets as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Write streams the dataset to w.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if err := data.Validate(); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(data.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(data.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
