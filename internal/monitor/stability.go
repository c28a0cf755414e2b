package monitor

import (
	"fmt"
	"os"
	"time"
)

// StabilityStatus is the result of one stability poll for a path.
type StabilityStatus int

const (
	// StatusUnstable means the file changed since the previous sample (or no
	// previous sample exists) and must be polled again.
	StatusUnstable StabilityStatus = iota
	// StatusStable means two consecutive samples were identical: the file is
	// safe to read fully.
	StatusStable
	// StatusVanished means the file disappeared between polls.
	StatusVanished
)

// String returns a human-readable representation of the status.
func (s StabilityStatus) String() string {
	switch s {
	case StatusUnstable:
		return "unstable"
	case StatusStable:
		return "stable"
	case StatusVanished:
		return "vanished"
	default:
		return "unknown"
	}
}

// Sample captures a file's observable write state at one polling tick.
type Sample struct {
	Size    int64
	ModTime time.Time

	// Checksum is set only when checksum verification is enabled.
	Checksum string
}

// Checker decides when a file has finished being written. It compares the
// current (size, mtime) sample, optionally including a content checksum,
// against the sample taken on the previous poll; two identical consecutive
// samples mean the file is stable.
//
// Polling works on network-mounted filesystems where write locks are
// unreliable, which is why no OS lock API is used. The checker holds one
// sample per path and is only ever called from the processing timeline, so a
// path is never evaluated concurrently.
type Checker struct {
	verifyChecksum bool
	samples        map[string]Sample
}

// NewChecker creates a stability checker. When verifyChecksum is true every
// sample includes a content checksum, guarding against writers that rewrite
// bytes in place without changing size or mtime.
func NewChecker(verifyChecksum bool) *Checker {
	return &Checker{
		verifyChecksum: verifyChecksum,
		samples:        make(map[string]Sample),
	}
}

// Check takes a stability sample for path and compares it to the previous
// one. A missing file reports StatusVanished and drops the path's state.
// A checker error (permission, transient I/O) reports StatusUnstable with
// the error; the caller counts it as a failed poll.
func (c *Checker) Check(path string) (StabilityStatus, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			delete(c.samples, path)
			return StatusVanished, nil
		}
		return StatusUnstable, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	sample := Sample{Size: info.Size(), ModTime: info.ModTime()}
	if c.verifyChecksum {
		sum, err := ChecksumFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				delete(c.samples, path)
				return StatusVanished, nil
			}
			return StatusUnstable, fmt.Errorf("failed to checksum %s: %w", path, err)
		}
		sample.Checksum = sum
	}

	prev, ok := c.samples[path]
	if ok && prev == sample {
		// Keep the sample so an unchanged file reports stable immediately
		// on any later check.
		return StatusStable, nil
	}

	c.samples[path] = sample
	return StatusUnstable, nil
}

// Forget drops the stored sample for path. Called when a task terminates so
// a future event for the same path starts a fresh stability window.
func (c *Checker) Forget(path string) {
	delete(c.samples, path)
}
