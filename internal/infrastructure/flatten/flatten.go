package flatten

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// Flattener converts uploaded binaries into the plain text that gets
// shipped to the assistant. Spreadsheets become CSV lines, PDFs their
// extracted text, text formats pass through.
type Flattener struct{}

func New() *Flattener { return &Flattener{} }

func (f *Flattener) Flatten(_ context.Context, filename string, data io.Reader) (string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if len(raw) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "flatten document", errors.New("empty document"))
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		return flattenSpreadsheet(raw)
	case ".pdf":
		return flattenPDF(raw)
	case ".csv", ".txt", ".json":
		return string(raw), nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "flatten document",
			fmt.Errorf("unsupported file type %q", filepath.Ext(filename)))
	}
}

func flattenSpreadsheet(raw []byte) (string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("open spreadsheet: %w", err)
	}
	defer book.Close()

	var out strings.Builder
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(book.GetSheetList()) > 1 {
			fmt.Fprintf(&out, "# %s\n", sheet)
		}
		for _, row := range rows {
			if rowIsEmpty(row) {
				continue
			}
			out.WriteString(strings.Join(escapeCSV(row), ","))
			out.WriteByte('\n')
		}
	}

	text := out.String()
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "flatten spreadsheet", errors.New("spreadsheet has no cell content"))
	}
	return text, nil
}

func flattenPDF(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	if strings.TrimSpace(string(text)) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "flatten pdf", errors.New("pdf has no extractable text"))
	}
	return string(text), nil
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func escapeCSV(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		if strings.ContainsAny(cell, ",\"\n") {
			cell = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
		}
		out[i] = cell
	}
	return out
}
