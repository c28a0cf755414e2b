package monitor_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/PenHsuanWang/file-data-fetcher/internal/format"
	"github.com/PenHsuanWang/file-data-fetcher/internal/monitor"
	"github.com/PenHsuanWang/file-data-fetcher/internal/sink"
)

// Example_basicUsage demonstrates monitor setup and a file flowing through
// stability polling into a SQLite backend.
func Example_basicUsage() {
	// Create temporary directories
	tmpDir, err := os.MkdirTemp("", "fetcher-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	folder := filepath.Join(tmpDir, "incoming")
	os.MkdirAll(folder, 0755)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := log.New(os.Stderr, "[fetcher] ", log.Ltime)

	// Open the backend and wrap it in a dispatcher
	backend, err := sink.Open(ctx, sink.Config{
		Backend: "sqlite",
		SQLite: sink.SQLiteConfig{
			Path:  filepath.Join(tmpDir, "records.db"),
			Table: "records",
		},
	}, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer backend.Close(context.Background())

	dispatcher, err := sink.NewDispatcher(backend, false, logger)
	if err != nil {
		log.Fatal(err)
	}

	// Create monitor with fast polling for the example
	cfg := monitor.DefaultConfig()
	cfg.Folder = folder
	cfg.PollInterval = 50 * time.Millisecond
	cfg.Logger = logger

	m, err := monitor.New(cfg, format.DefaultRegistry(), nil, dispatcher)
	if err != nil {
		log.Fatal(err)
	}

	// Start monitor in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Run(ctx)
	}()

	// Wait for the watch to arm
	time.Sleep(100 * time.Millisecond)

	// Drop a CSV file into the watched folder
	csv := "name,age,city\nAlice,25,New York\nBob,30,San Francisco"
	if err := os.WriteFile(filepath.Join(folder, "sample.csv"), []byte(csv), 0644); err != nil {
		log.Fatal(err)
	}

	// Wait for stability polling and dispatch
	time.Sleep(500 * time.Millisecond)

	fmt.Println("Monitor processed the file")

	cancel()
	if err := <-errCh; err != nil {
		log.Printf("Monitor error: %v", err)
	}

	// Output:
	// Monitor processed the file
}
