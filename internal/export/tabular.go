// Package export turns extracted fields into tabular files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/BerylCAtieno/document-extractor/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const SheetName = "Extracted Data"

var header = []string{"Label", "Value", "Confidence"}

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, true
	}
	return "", false
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

func (f Format) Filename() string {
	return "extracted." + string(f)
}

// Rows maps fields to flat rows in their original order.
func Rows(fields []models.ExtractedField) []models.ExportRow {
	rows := make([]models.ExportRow, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, models.ExportRow{
			Label:      f.Label,
			Value:      f.Value,
			Confidence: FormatConfidence(f.Confidence),
		})
	}
	return rows
}

// FormatConfidence renders a [0,1] confidence as a rounded percentage.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(c*100)))
}

func Write(format Format, rows []models.ExportRow) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ToCSV(rows)
	case FormatXLSX:
		return ToXLSX(rows)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func ToCSV(rows []models.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Label, r.Value, r.Confidence}); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}

	return buf.Bytes(), nil
}

func ToXLSX(rows []models.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, r := range rows {
		row := i + 2
		for col, v := range []string{r.Label, r.Value, r.Confidence} {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			// string cells keep values like "00123" and "87%" verbatim
			if err := f.SetCellStr(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 28) // label
	_ = f.SetColWidth(SheetName, "B", "B", 48) // value
	_ = f.SetColWidth(SheetName, "C", "C", 12) // confidence

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
