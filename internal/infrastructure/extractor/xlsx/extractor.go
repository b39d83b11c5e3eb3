package xlsx

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Extractor renders every worksheet as CSV, in workbook order, joined by newlines.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractText(_ context.Context, data []byte) (string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = book.Close()
	}()

	sheets := book.GetSheetList()
	parts := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		text, err := sheetToCSV(rows)
		if err != nil {
			return "", fmt.Errorf("render sheet %q: %w", sheet, err)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

// sheetToCSV pads ragged rows to the widest row so every line has the same
// column count, and drops the writer's final newline.
func sheetToCSV(rows [][]string) (string, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
