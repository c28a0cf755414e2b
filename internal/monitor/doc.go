// Package monitor implements the file-stability detection and dispatch
// engine: it turns raw filesystem notifications into deduplicated, validated
// units of work handed to exactly one persistence backend.
//
// # Architecture
//
// The package consists of four components:
//
//   - FolderWatcher: bridges the OS notification thread onto the processing
//     timeline via a bounded channel (fsnotify underneath)
//   - Checker: decides when a file has finished being written, by comparing
//     consecutive (size, mtime[, checksum]) samples
//   - FingerprintStore: suppresses duplicate processing of identical content
//   - Monitor: the orchestrator driving each task through its state machine
//
// # Processing timeline
//
// Monitor.Run is a single goroutine owning all task state, the stability
// checker and the fingerprint store. It wakes on three things: a watcher
// event, the poll-interval tick, and context cancellation. The watcher's
// notification goroutine never reads file content and never touches task
// state; the only cross-thread handoff is the bounded event channel.
//
// # Task lifecycle
//
//	Detected → Stabilizing → {Stable | Vanished | StabilityTimeout}
//	Stable → {DuplicateSkip | Parsing}
//	Parsing → {ParseError | Validating}
//	Validating → {ValidationError | Persisting}
//	Persisting → {PersistError | Done}
//
// Every non-Done terminal state is a reported, task-local failure: it is
// logged with path, fingerprint, stage and reason, the task is dropped, and
// the monitor keeps running.
//
// # Stability detection
//
// A file is never handed to a parser before two consecutive polls, one poll
// interval apart, observe identical samples. Polling (rather than OS write
// locks) is deliberate: it behaves the same on network-mounted shares where
// lock APIs are unreliable. A file that keeps changing is dropped after a
// configurable number of polls.
//
// # Deduplication
//
// The fingerprint is an MD5 digest of the stabilized bytes. Once a
// fingerprint is processed, later events with identical content are skipped;
// a failed task releases its reservation so the next event may retry. The
// store lives in process memory only, so a restart starts with empty dedup
// history.
//
// # Usage
//
//	cfg := monitor.DefaultConfig()
//	cfg.Folder = "/data/incoming"
//
//	m, err := monitor.New(cfg, format.DefaultRegistry(), schema, dispatcher)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := m.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package monitor
