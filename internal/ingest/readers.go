// Package ingest reads raw sales rows from files and request bodies and
// normalizes them into canonical records.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesboard/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Payload is what a source yields: raw rows to normalize, or metrics that an
// upstream service already aggregated. At most one of the two is set.
type Payload struct {
	Rows    []models.RawRecord      `json:"rows,omitempty"`
	Metrics []models.ProductMetrics `json:"metrics,omitempty"`
}

// Preaggregated reports whether the payload carries metrics instead of rows.
func (p Payload) Preaggregated() bool {
	return p.Metrics != nil && p.Rows == nil
}

// DetectFormat picks a format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ReadFile reads path with the given format, or the one implied by its
// extension when format is empty.
func ReadFile(path string, format Format) (Payload, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return Payload{}, err
		}
		format = detected
	}

	f, err := os.Open(path)
	if err != nil {
		return Payload{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Read(f, format)
}

func Read(r io.Reader, format Format) (Payload, error) {
	switch format {
	case FormatCSV:
		rows, err := ReadCSV(r)
		return Payload{Rows: rows}, err
	case FormatXLSX:
		rows, err := ReadXLSX(r)
		return Payload{Rows: rows}, err
	case FormatJSON:
		return ReadJSON(r)
	}
	return Payload{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// ReadCSV reads a header row followed by data rows. Ragged rows are allowed;
// missing cells are simply absent from the record.
func ReadCSV(r io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return tableToRecords(all), nil
}

// ReadXLSX reads the first worksheet of a workbook; its first row is the header.
func ReadXLSX(r io.Reader) ([]models.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []models.RawRecord{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return tableToRecords(rows), nil
}

// ReadJSON accepts a bare array of rows, {"rows": [...]} or {"metrics": [...]}.
// Numbers are kept as json.Number so large values are not rounded.
func ReadJSON(r io.Reader) (Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Payload{}, fmt.Errorf("read json: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Payload{Rows: []models.RawRecord{}}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var rows []models.RawRecord
		if err := dec.Decode(&rows); err != nil {
			return Payload{}, fmt.Errorf("decode rows: %w", err)
		}
		return Payload{Rows: rows}, nil
	}

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.Rows == nil && p.Metrics == nil {
		p.Rows = []models.RawRecord{}
	}
	return p, nil
}

func tableToRecords(table [][]string) []models.RawRecord {
	if len(table) == 0 {
		return []models.RawRecord{}
	}
	header := table[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	out := make([]models.RawRecord, 0, len(table)-1)
	for _, row := range table[1:] {
		rec := make(models.RawRecord, len(header))
		blank := true
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			rec[header[i]] = cell
			if strings.TrimSpace(cell) != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}
