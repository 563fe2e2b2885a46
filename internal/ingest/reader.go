// Package ingest turns uploaded CSV and Excel files into summarizer
// datasets.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "reportai/internal/errors"
	"reportai/internal/summarizer"
)

// Format is a supported input file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat maps a file name to its format by extension.
func DetectFormat(filename string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", apperrors.UnsupportedFormat(ext)
	}
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string) (summarizer.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return summarizer.Dataset{}, apperrors.WithCode(apperrors.CodeInvalidInput, err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// Read parses r as the format implied by filename. The first record is the
// header row; the remaining records are data rows. Headers and cells are
// trimmed and rows are kept even when their length differs from the header
// row. An empty file yields an empty dataset.
func Read(r io.Reader, filename string) (summarizer.Dataset, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return summarizer.Dataset{}, err
	}

	start := time.Now()
	var records [][]string
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	}
	if err != nil {
		return summarizer.Dataset{}, err
	}

	ds := fromRecords(records)
	slog.Debug("file ingested",
		slog.String("component", "ingest"),
		slog.String("file", filename),
		slog.String("format", string(format)),
		slog.Int("columns", ds.ColumnCount()),
		slog.Int("rows", ds.RowCount()),
		slog.Duration("elapsed", time.Since(start)))
	return ds, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read CSV input")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput, fmt.Errorf("failed to parse CSV: %w", err))
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput, fmt.Errorf("failed to open Excel workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err))
	}
	return rows, nil
}

// fromRecords splits raw records into headers and rows. Fully blank rows
// are dropped; Excel reports them for formatted but empty ranges.
func fromRecords(records [][]string) summarizer.Dataset {
	ds := summarizer.Dataset{Headers: []string{}, Rows: [][]string{}}
	if len(records) == 0 {
		return ds
	}

	ds.Headers = trimAll(records[0])
	for _, record := range records[1:] {
		row := trimAll(record)
		if isBlankRow(row) {
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
