package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T) *FolderWatcher {
	t.Helper()
	fw, err := NewFolderWatcher([]string{".csv", ".xlsx"})
	if err != nil {
		t.Fatalf("NewFolderWatcher() failed: %v", err)
	}
	return fw
}

// TestNewFolderWatcher verifies construction and extension validation.
func TestNewFolderWatcher(t *testing.T) {
	fw := newTestWatcher(t)
	defer fw.Stop()

	if fw.IsRunning() {
		t.Error("newly created watcher should not be running")
	}

	if _, err := NewFolderWatcher(nil); err == nil {
		t.Error("NewFolderWatcher() should fail with no extensions")
	}
}

// TestFolderWatcherStartStop verifies a clean start/stop cycle.
func TestFolderWatcherStartStop(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t)

	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !fw.IsRunning() {
		t.Error("watcher should be running after Start()")
	}

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if fw.IsRunning() {
		t.Error("watcher should not be running after Stop()")
	}
}

// TestFolderWatcherStartAlreadyRunning verifies double Start fails.
func TestFolderWatcherStartAlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t)
	defer fw.Stop()

	if err := fw.Start(dir); err != nil {
		t.Fatalf("first Start() failed: %v", err)
	}
	if err := fw.Start(dir); err == nil {
		t.Error("second Start() should fail while running")
	}
}

// TestFolderWatcherStartNonexistentDirectory verifies the error path.
func TestFolderWatcherStartNonexistentDirectory(t *testing.T) {
	fw := newTestWatcher(t)
	defer fw.Stop()

	if err := fw.Start("/nonexistent/incoming"); err == nil {
		t.Error("Start() should fail for a nonexistent directory")
	}
}

// TestFolderWatcherFileCreated verifies that creating a matching file
// produces a create event.
func TestFolderWatcherFileCreated(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t)
	defer fw.Stop()

	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	path := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(path, []byte("name,age\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case ev := <-fw.Events():
		if ev.Op != OpCreate {
			t.Errorf("event op = %v, want create", ev.Op)
		}
		if filepath.Base(ev.Path) != "sample.csv" {
			t.Errorf("event path = %s, want sample.csv", ev.Path)
		}
		if ev.Time.IsZero() {
			t.Error("event time should be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for create event")
	}
}

// TestFolderWatcherFileModified verifies that writing an existing file
// produces a modify event.
func TestFolderWatcherFileModified(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(path, []byte("name,age\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	fw := newTestWatcher(t)
	defer fw.Stop()

	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("name,age\nAlice,25\n"), 0644); err != nil {
		t.Fatalf("failed to update file: %v", err)
	}

	select {
	case ev := <-fw.Events():
		if ev.Op != OpModify {
			t.Errorf("event op = %v, want modify", ev.Op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for modify event")
	}
}

// TestFolderWatcherUnmatchedExtensionIgnored verifies the extension filter.
func TestFolderWatcherUnmatchedExtensionIgnored(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t)
	defer fw.Stop()

	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("not tabular"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case ev := <-fw.Events():
		t.Errorf("should not receive event for unmatched extension, got %+v", ev)
	case <-time.After(500 * time.Millisecond):
		// Expected: no event.
	}
}

// TestFolderWatcherCaseInsensitiveExtension verifies .CSV matches .csv.
func TestFolderWatcherCaseInsensitiveExtension(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t)
	defer fw.Stop()

	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	path := filepath.Join(dir, "REPORT.CSV")
	if err := os.WriteFile(path, []byte("name\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case ev := <-fw.Events():
		if filepath.Base(ev.Path) != "REPORT.CSV" {
			t.Errorf("event path = %s, want REPORT.CSV", ev.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event on uppercase extension")
	}
}

// TestFolderWatcherRemoveIgnored verifies that deletions never produce work.
func TestFolderWatcherRemoveIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(path, []byte("name\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	fw := newTestWatcher(t)
	defer fw.Stop()

	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	select {
	case ev := <-fw.Events():
		t.Errorf("should not receive event for removal, got %+v", ev)
	case <-time.After(500 * time.Millisecond):
		// Expected: no event.
	}
}

// TestFolderWatcherStopClosesChannels verifies channel closure on Stop().
func TestFolderWatcherStopClosesChannels(t *testing.T) {
	dir := t.TempDir()
	fw := newTestWatcher(t)

	if err := fw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	events := fw.Events()
	errors := fw.Errors()

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("events channel should be closed after Stop()")
		}
	case <-time.After(time.Second):
		t.Error("timeout verifying events channel closure")
	}

	select {
	case _, ok := <-errors:
		if ok {
			t.Error("errors channel should be closed after Stop()")
		}
	case <-time.After(time.Second):
		t.Error("timeout verifying errors channel closure")
	}
}

// TestEventOpString verifies the String() method for EventOp.
func TestEventOpString(t *testing.T) {
	tests := []struct {
		op       EventOp
		expected string
	}{
		{OpCreate, "create"},
		{OpModify, "modify"},
		{EventOp(999), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.expected {
			t.Errorf("EventOp(%d).String() = %q, want %q", tt.op, got, tt.expected)
		}
	}
}
