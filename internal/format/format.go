// Package format maps file extensions to parsing strategies and provides the
// built-in CSV and Excel parsers.
//
// A Parser is a pure function from stabilized file bytes to records: it never
// touches shared state, so a failed parse can safely be retried on a later
// event for the same file.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
)

// ErrUnsupportedFormat is returned by Registry.Resolve when no parser is
// registered for a file's extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parser decodes the full content of a tabular file into records.
type Parser interface {
	// Name identifies the parser in logs and configuration ("csv", "excel").
	Name() string

	// Parse decodes stabilized file bytes into one record per data row.
	Parse(data []byte) ([]record.Record, error)
}

// Registry maps file extensions (".csv", ".xlsx") to registered parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// DefaultRegistry returns a registry with the built-in parsers registered
// under their conventional extensions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".csv", NewCSVParser())
	excel := NewExcelParser()
	r.Register(".xls", excel)
	r.Register(".xlsx", excel)
	return r
}

// Register associates an extension with a parser. The extension is
// normalized to a lowercase ".ext" form. Registering an extension twice
// replaces the earlier parser.
func (r *Registry) Register(ext string, p Parser) {
	r.parsers[normalizeExt(ext)] = p
}

// Resolve returns the parser registered for the path's extension, or
// ErrUnsupportedFormat. Resolution is a pure lookup: it never reads the file.
func (r *Registry) Resolve(path string) (Parser, error) {
	ext := normalizeExt(filepath.Ext(path))
	p, ok := r.parsers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return p, nil
}

// Extensions returns the sorted list of registered extensions. The monitor
// uses this to filter filesystem events before any task is created.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// rowsToRecords converts a header row plus data rows into records. Short rows
// leave trailing columns unset; extra cells beyond the header are dropped.
func rowsToRecords(rows [][]string) []record.Record {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	recs := make([]record.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(record.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		recs = append(recs, rec)
	}
	return recs
}
