package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
)

// CSVParser decodes comma-separated files. The first row is the header; each
// following row becomes one record keyed by header column names.
type CSVParser struct{}

// NewCSVParser creates a CSV parsing strategy.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Name implements Parser.
func (p *CSVParser) Name() string { return "csv" }

// Parse implements Parser.
func (p *CSVParser) Parse(data []byte) ([]record.Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	return rowsToRecords(rows), nil
}
