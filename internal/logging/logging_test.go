package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PenHsuanWang/file-data-fetcher/internal/config"
)

// TestNewStderrOnly verifies the no-file path returns a usable logger.
func TestNewStderrOnly(t *testing.T) {
	logger, closer, err := New("[test] ", config.LogConfig{})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer closer.Close()

	if logger == nil {
		t.Fatal("New() returned nil logger")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}

// TestNewWithFile verifies log lines land in the configured file.
func TestNewWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "fetcher.log")

	logger, closer, err := New("[test] ", config.LogConfig{
		File:      path,
		MaxSizeMB: 1,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer closer.Close()

	logger.Println("hello from the fetcher")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "hello from the fetcher") {
		t.Errorf("log file missing message, got: %s", data)
	}
	if !strings.Contains(string(data), "[test] ") {
		t.Errorf("log file missing prefix, got: %s", data)
	}
}
