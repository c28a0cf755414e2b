package format

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
)

// ExcelParser decodes .xls/.xlsx workbooks. Only the first sheet is read;
// its first row is the header and each following row becomes one record.
type ExcelParser struct{}

// NewExcelParser creates an Excel parsing strategy.
func NewExcelParser() *ExcelParser {
	return &ExcelParser{}
}

// Name implements Parser.
func (p *ExcelParser) Name() string { return "excel" }

// Parse implements Parser.
func (p *ExcelParser) Parse(data []byte) ([]record.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	return rowsToRecords(rows), nil
}
