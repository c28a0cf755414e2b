package gen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PenHsuanWang/file-data-fetcher/internal/format"
)

// TestCSVGeneratesParsableFile verifies the generated CSV round-trips
// through the CSV parser.
func TestCSVGeneratesParsableFile(t *testing.T) {
	dir := t.TempDir()
	path, err := CSV(Options{Dir: dir, Rows: 5, Seed: 42})
	if err != nil {
		t.Fatalf("CSV() failed: %v", err)
	}

	if filepath.Ext(path) != ".csv" {
		t.Errorf("generated path %s lacks .csv extension", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}
	if !strings.HasPrefix(string(data), "name,age,city\n") {
		t.Errorf("missing header, got: %q", string(data)[:20])
	}

	recs, err := format.NewCSVParser().Parse(data)
	if err != nil {
		t.Fatalf("generated CSV failed to parse: %v", err)
	}
	if len(recs) != 5 {
		t.Errorf("parsed %d records, want 5", len(recs))
	}
	for i, rec := range recs {
		if rec["name"] == "" || rec["age"] == "" || rec["city"] == "" {
			t.Errorf("record %d has empty fields: %v", i, rec)
		}
	}
}

// TestCSVDeterministicWithSeed verifies the same seed yields the same rows.
func TestCSVDeterministicWithSeed(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	pathA, err := CSV(Options{Dir: dirA, Rows: 4, Seed: 7})
	if err != nil {
		t.Fatalf("CSV() failed: %v", err)
	}
	pathB, err := CSV(Options{Dir: dirB, Rows: 4, Seed: 7})
	if err != nil {
		t.Fatalf("CSV() failed: %v", err)
	}

	a, _ := os.ReadFile(pathA)
	b, _ := os.ReadFile(pathB)
	if string(a) != string(b) {
		t.Error("same seed produced different content")
	}
}

// TestCSVDefaultRows verifies the default of 3 data rows.
func TestCSVDefaultRows(t *testing.T) {
	path, err := CSV(Options{Dir: t.TempDir(), Seed: 1})
	if err != nil {
		t.Fatalf("CSV() failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	lines := strings.Count(strings.TrimRight(string(data), "\n"), "\n")
	if lines != 3 {
		t.Errorf("got %d data rows, want 3", lines)
	}
}

// TestCSVSlowWrite verifies chunked writing takes at least the configured
// total delay, keeping the file visibly unstable to a poller.
func TestCSVSlowWrite(t *testing.T) {
	start := time.Now()
	_, err := CSV(Options{Dir: t.TempDir(), Rows: 4, Seed: 1, ChunkDelay: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("CSV() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("slow write finished in %s, want at least 80ms", elapsed)
	}
}

// TestExcelGeneratesParsableFile verifies the generated workbook
// round-trips through the Excel parser.
func TestExcelGeneratesParsableFile(t *testing.T) {
	dir := t.TempDir()
	path, err := Excel(Options{Dir: dir, Rows: 3, Seed: 42})
	if err != nil {
		t.Fatalf("Excel() failed: %v", err)
	}

	if filepath.Ext(path) != ".xlsx" {
		t.Errorf("generated path %s lacks .xlsx extension", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}
	recs, err := format.NewExcelParser().Parse(data)
	if err != nil {
		t.Fatalf("generated workbook failed to parse: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("parsed %d records, want 3", len(recs))
	}
}

// TestCSVCreatesMissingDir verifies the destination directory is created.
func TestCSVCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "incoming")
	if _, err := CSV(Options{Dir: dir, Seed: 1}); err != nil {
		t.Fatalf("CSV() failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("destination directory not created: %v", err)
	}
}
