package monitor

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
)

// Checksum returns the hex MD5 digest of data. Used both as the content
// fingerprint for deduplication and, optionally, inside stability samples.
func Checksum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// ChecksumFile returns the hex MD5 digest of the file at path, streaming the
// content rather than loading it into memory.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Outcome tells the fingerprint store how a dispatched task ended.
type Outcome int

const (
	// OutcomeSuccess finalizes the fingerprint as processed: later events
	// carrying identical content are skipped.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure releases the reservation so the next event for the same
	// content may retry.
	OutcomeFailure
)

type fingerprintState int

const (
	fpReserved fingerprintState = iota
	fpProcessed
)

// FingerprintStore tracks which file contents have been accepted for
// processing, suppressing duplicate events. It is process-local, in-memory
// state: dedup history is deliberately lost on restart, so duplicate delivery
// across restarts is an accepted boundary.
//
// Between TryAcquire and Release a fingerprint is reserved, which is what
// guarantees at most one task per fingerprint ever reaches the persisting
// stage.
type FingerprintStore struct {
	mu      sync.Mutex
	entries map[string]fingerprintState
}

// NewFingerprintStore creates an empty store.
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{entries: make(map[string]fingerprintState)}
}

// TryAcquire atomically checks whether fp was already reserved or processed.
// It returns true and reserves fp if not; the caller proceeds and must call
// Release with the final outcome. It returns false if fp is already taken;
// the caller skips the task.
func (s *FingerprintStore) TryAcquire(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[fp]; ok {
		return false
	}
	s.entries[fp] = fpReserved
	return true
}

// Release resolves a reservation made by TryAcquire.
func (s *FingerprintStore) Release(fp string, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch outcome {
	case OutcomeSuccess:
		s.entries[fp] = fpProcessed
	case OutcomeFailure:
		delete(s.entries, fp)
	}
}

// IsProcessed reports whether fp has been finalized as processed.
func (s *FingerprintStore) IsProcessed(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[fp] == fpProcessed
}

// Len returns the number of reserved or processed fingerprints.
func (s *FingerprintStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
