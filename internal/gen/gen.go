// Package gen creates sample data files for exercising the fetcher.
//
// Generated files land in the watched folder so the full pipeline runs
// against them: stability polling, dedup, parsing, validation and
// persistence. The slow-write mode streams a CSV in timed chunks, which is
// the easiest way to watch stability detection hold a file back until the
// writer finishes.
package gen

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Options controls sample file generation.
type Options struct {
	// Dir is the destination directory. Created if missing.
	Dir string

	// Rows is how many data rows to generate (default 3).
	Rows int

	// Seed for deterministic output. 0 seeds from the clock.
	Seed int64

	// ChunkDelay, when positive, writes CSV output row by row with this
	// delay between rows. Ignored for Excel output.
	ChunkDelay time.Duration
}

var (
	sampleNames  = []string{"Alice", "Bob", "Charlie", "Diana", "Evan", "Fiona", "Grace", "Hiro"}
	sampleCities = []string{"New York", "San Francisco", "Los Angeles", "Chicago", "Seattle", "Austin", "Boston", "Denver"}
)

// row is one generated person record.
type row struct {
	Name string
	Age  int
	City string
}

func generateRows(opts Options) []row {
	n := opts.Rows
	if n <= 0 {
		n = 3
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{
			Name: sampleNames[rng.Intn(len(sampleNames))],
			Age:  18 + rng.Intn(60),
			City: sampleCities[rng.Intn(len(sampleCities))],
		}
	}
	return rows
}

// timestampName returns sample_<unix>.<ext>, matching how upstream systems
// commonly name exported files.
func timestampName(ext string) string {
	return fmt.Sprintf("sample_%d%s", time.Now().Unix(), ext)
}

// CSV writes a sample CSV file and returns its path. With a positive
// ChunkDelay the rows are flushed one at a time so the file stays unstable
// while writing.
func CSV(opts Options) (string, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", opts.Dir, err)
	}
	path := filepath.Join(opts.Dir, timestampName(".csv"))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString("name,age,city\n"); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range generateRows(opts) {
		line := fmt.Sprintf("%s,%d,%s\n", csvField(r.Name), r.Age, csvField(r.City))
		if _, err := f.WriteString(line); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
		if opts.ChunkDelay > 0 {
			if err := f.Sync(); err != nil {
				return "", fmt.Errorf("failed to flush row: %w", err)
			}
			time.Sleep(opts.ChunkDelay)
		}
	}
	return path, nil
}

// csvField quotes a value when it contains a delimiter.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Excel writes a sample .xlsx file and returns its path.
func Excel(opts Options) (string, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", opts.Dir, err)
	}
	path := filepath.Join(opts.Dir, timestampName(".xlsx"))

	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	if err := wb.SetSheetRow(sheet, "A1", &[]any{"name", "age", "city"}); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range generateRows(opts) {
		cell := fmt.Sprintf("A%d", i+2)
		if err := wb.SetSheetRow(sheet, cell, &[]any{r.Name, r.Age, r.City}); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}
