package monitor

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PenHsuanWang/file-data-fetcher/internal/format"
	"github.com/PenHsuanWang/file-data-fetcher/internal/record"
	"github.com/PenHsuanWang/file-data-fetcher/internal/sink"
)

// Config holds configuration for the folder monitor.
type Config struct {
	// Folder is the directory to watch (non-recursive).
	Folder string

	// Extensions restricts which files the watch reports. Defaults to the
	// format registry's registered extensions. An extension listed here
	// without a registered parser fails tasks at dispatch resolution.
	Extensions []string

	// PollInterval is how often stability polls run.
	PollInterval time.Duration

	// MaxStabilityPolls is how many non-stable polls a file gets before the
	// task fails with a stability timeout.
	MaxStabilityPolls int

	// VerifyChecksum adds a content checksum to every stability sample.
	VerifyChecksum bool

	// InitialScan enqueues files already present in the folder at startup,
	// catching anything dropped before the watch began.
	InitialScan bool

	// ShutdownGrace bounds how long an in-flight persist may run after the
	// monitor is cancelled.
	ShutdownGrace time.Duration

	// Logger for monitor activity.
	Logger *log.Logger

	// Observer, when set, receives every task lifecycle event.
	Observer Observer
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:      2 * time.Second,
		MaxStabilityPolls: 30,
		ShutdownGrace:     10 * time.Second,
		Logger:            log.New(os.Stderr, "[monitor] ", log.LstdFlags),
	}
}

// Monitor orchestrates the watch: it owns the folder watcher, drives
// periodic stability polling, and sequences stability → dedup → parse →
// validate → persist for each qualifying file.
//
// All task state, the stability checker and the fingerprint store are
// mutated exclusively from the single goroutine running Run (the processing
// timeline). The watcher's notification goroutine only ever enqueues events.
type Monitor struct {
	cfg        *Config
	registry   *format.Registry
	schema     *record.Schema
	dispatcher *sink.Dispatcher

	watcher *FolderWatcher
	checker *Checker
	store   *FingerprintStore

	// tasks holds in-flight work keyed by path. Owned by the run loop.
	tasks map[string]*Task
}

// New creates a monitor. schema may be nil (records pass through untyped).
func New(cfg *Config, registry *format.Registry, schema *record.Schema, dispatcher *sink.Dispatcher) (*Monitor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Folder == "" {
		return nil, fmt.Errorf("folder cannot be empty")
	}
	if info, err := os.Stat(cfg.Folder); err != nil {
		return nil, fmt.Errorf("folder %s is not accessible: %w", cfg.Folder, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", cfg.Folder)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if cfg.MaxStabilityPolls <= 0 {
		return nil, fmt.Errorf("max stability polls must be positive")
	}
	if registry == nil {
		return nil, fmt.Errorf("format registry cannot be nil")
	}
	if len(registry.Extensions()) == 0 {
		return nil, fmt.Errorf("format registry has no parsers")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("sink dispatcher cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = registry.Extensions()
	}

	watcher, err := NewFolderWatcher(cfg.Extensions)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		cfg:        cfg,
		registry:   registry,
		schema:     schema,
		dispatcher: dispatcher,
		watcher:    watcher,
		checker:    NewChecker(cfg.VerifyChecksum),
		store:      NewFingerprintStore(),
		tasks:      make(map[string]*Task),
	}, nil
}

// Run starts the watch and blocks until ctx is cancelled. On cancellation the
// watcher stops accepting events and tasks still stabilizing are abandoned
// without side effects; an in-flight persist finishes within the shutdown
// grace period because its context is detached from ctx.
func (m *Monitor) Run(ctx context.Context) error {
	m.cfg.Logger.Printf("Monitoring folder: %s (extensions: %s, backend: %s, dry-run: %v)",
		m.cfg.Folder, strings.Join(m.cfg.Extensions, " "), m.dispatcher.BackendName(), m.dispatcher.DryRun())

	if err := m.watcher.Start(m.cfg.Folder); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	// Scan after the watch is armed so a file dropped in between is seen
	// by one or the other; a file seen by both coalesces into one task.
	if m.cfg.InitialScan {
		if err := m.scanExisting(); err != nil {
			stopErr := m.watcher.Stop()
			if stopErr != nil {
				m.cfg.Logger.Printf("Watcher stop error: %v", stopErr)
			}
			return fmt.Errorf("initial scan failed: %w", err)
		}
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.cfg.Logger.Printf("Shutdown signal received, %d tasks abandoned", len(m.tasks))
			return m.watcher.Stop()

		case ev, ok := <-m.watcher.Events():
			if !ok {
				return nil
			}
			m.handleEvent(ev)

		case err, ok := <-m.watcher.Errors():
			if !ok {
				return nil
			}
			m.cfg.Logger.Printf("Watcher error: %v", err)

		case <-ticker.C:
			m.pollTasks(ctx)
		}
	}
}

// scanExisting enqueues files already present in the folder, as if the watch
// had reported them. Non-recursive, same extension filter as the watcher.
func (m *Monitor) scanExisting() error {
	entries, err := os.ReadDir(m.cfg.Folder)
	if err != nil {
		return fmt.Errorf("failed to read folder: %w", err)
	}

	watched := make(map[string]bool, len(m.cfg.Extensions))
	for _, ext := range m.cfg.Extensions {
		watched[strings.ToLower(ext)] = true
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !watched[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(m.cfg.Folder, entry.Name())
		m.handleEvent(FileEvent{Path: path, Op: OpCreate, Time: time.Now()})
	}
	return nil
}

// handleEvent turns a filesystem notification into a processing task. Runs
// on the processing timeline.
func (m *Monitor) handleEvent(ev FileEvent) {
	// An event for a path already in flight coalesces into the existing
	// task: the next stability poll observes any new writes.
	if _, ok := m.tasks[ev.Path]; ok {
		return
	}

	parser, err := m.registry.Resolve(ev.Path)
	if err != nil {
		// Fail at dispatch resolution, before any stability poll is spent.
		task := newTask(ev.Path, nil)
		m.fail(task, ReasonUnsupportedFormat, err)
		return
	}

	task := newTask(ev.Path, parser)
	m.tasks[ev.Path] = task
	m.emit(task, ReasonNone, 0, nil)

	task.State = StateStabilizing
	m.emit(task, ReasonNone, 0, nil)
}

// pollTasks advances every stabilizing task by one stability check. A task
// that reaches Stable runs the rest of its pipeline to a terminal state
// within this wake, still on the processing timeline.
func (m *Monitor) pollTasks(ctx context.Context) {
	for _, task := range m.tasks {
		if task.State != StateStabilizing {
			continue
		}

		status, err := m.checker.Check(task.Path)
		if err != nil {
			m.cfg.Logger.Printf("Stability check error for %s: %v", task.Path, err)
		}

		switch status {
		case StatusVanished:
			m.fail(task, ReasonVanished, fmt.Errorf("file disappeared while stabilizing"))

		case StatusUnstable:
			task.Polls++
			if task.Polls >= m.cfg.MaxStabilityPolls {
				m.checker.Forget(task.Path)
				m.fail(task, ReasonStabilityTimeout,
					fmt.Errorf("file did not stabilize within %d polls", m.cfg.MaxStabilityPolls))
			}

		case StatusStable:
			m.process(ctx, task)
		}
	}
}

// process runs a stable task through fingerprinting, dedup, parsing,
// validation and persistence.
func (m *Monitor) process(ctx context.Context, task *Task) {
	task.State = StateStable
	if !task.stableSeen {
		task.stableSeen = true
		m.emit(task, ReasonNone, 0, nil)
	}

	data, err := os.ReadFile(task.Path)
	if err != nil {
		if os.IsNotExist(err) {
			m.fail(task, ReasonVanished, err)
			return
		}
		// Transient read error: fall back to stabilizing and let the next
		// poll retry. The poll still counts toward the timeout cap, so a
		// path that is permanently unreadable (a directory with a watched
		// extension, a permission problem on a share) fails instead of
		// retrying forever.
		m.cfg.Logger.Printf("Read error for %s, will retry: %v", task.Path, err)
		task.State = StateStabilizing
		task.Polls++
		if task.Polls >= m.cfg.MaxStabilityPolls {
			m.checker.Forget(task.Path)
			m.fail(task, ReasonStabilityTimeout,
				fmt.Errorf("file not readable within %d polls: %w", m.cfg.MaxStabilityPolls, err))
		}
		return
	}

	task.Fingerprint = Checksum(data)

	if !m.store.TryAcquire(task.Fingerprint) {
		task.State = StateSkipped
		m.emit(task, ReasonDuplicateSkip, 0, nil)
		m.remove(task)
		return
	}

	task.State = StateParsing
	m.emit(task, ReasonNone, 0, nil)

	recs, err := task.parser.Parse(data)
	if err != nil {
		m.store.Release(task.Fingerprint, OutcomeFailure)
		m.fail(task, ReasonParseError, err)
		return
	}

	task.State = StateValidating
	m.emit(task, ReasonNone, len(recs), nil)

	validated, err := m.schema.ApplyAll(recs)
	if err != nil {
		m.store.Release(task.Fingerprint, OutcomeFailure)
		m.fail(task, ReasonValidationError, err)
		return
	}

	task.State = StatePersisting
	m.emit(task, ReasonNone, len(validated), nil)

	// Detached from the run context so cancellation mid-persist degrades to
	// a bounded grace period instead of an abort.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ShutdownGrace)
	err = m.dispatcher.Dispatch(persistCtx, task.Path, validated)
	cancel()
	if err != nil {
		m.store.Release(task.Fingerprint, OutcomeFailure)
		m.fail(task, ReasonPersistError, err)
		return
	}

	m.store.Release(task.Fingerprint, OutcomeSuccess)
	task.State = StateDone
	m.emit(task, ReasonNone, len(validated), nil)
	m.remove(task)
}

// fail marks a task terminally failed, reports it, and removes it. The
// failure never affects other in-flight tasks or the watch itself.
func (m *Monitor) fail(task *Task, reason Reason, err error) {
	task.State = StateFailed
	m.emit(task, reason, 0, err)
	m.remove(task)
}

// remove drops a terminated task and its stability state.
func (m *Monitor) remove(task *Task) {
	m.checker.Forget(task.Path)
	delete(m.tasks, task.Path)
}

// emit logs a task transition and forwards it to the observer.
func (m *Monitor) emit(task *Task, reason Reason, records int, err error) {
	switch {
	case err != nil:
		m.cfg.Logger.Printf("Task %s: %s %s (fingerprint=%s reason=%s): %v",
			task.ID, task.Path, task.State, task.Fingerprint, reason, err)
	case reason != ReasonNone:
		m.cfg.Logger.Printf("Task %s: %s %s (fingerprint=%s reason=%s)",
			task.ID, task.Path, task.State, task.Fingerprint, reason)
	default:
		m.cfg.Logger.Printf("Task %s: %s %s", task.ID, task.Path, task.State)
	}

	if m.cfg.Observer != nil {
		m.cfg.Observer.OnTaskEvent(TaskEvent{
			TaskID:      task.ID,
			Path:        task.Path,
			Fingerprint: task.Fingerprint,
			State:       task.State,
			Reason:      reason,
			Records:     records,
			Err:         err,
			Time:        time.Now(),
		})
	}
}
