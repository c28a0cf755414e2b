// Package logging builds the fetcher's logger, optionally teeing output
// into a size-rotated log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/PenHsuanWang/file-data-fetcher/internal/config"
)

// New returns a logger writing to stderr and, when cfg.File is set, a
// rotating log file. The returned closer flushes and closes the file
// writer; it is a no-op for stderr-only loggers.
func New(prefix string, cfg config.LogConfig) (*log.Logger, io.Closer, error) {
	if cfg.File == "" {
		return log.New(os.Stderr, prefix, log.LstdFlags), nopCloser{}, nil
	}

	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	return log.New(io.MultiWriter(os.Stderr, rotator), prefix, log.LstdFlags), rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
