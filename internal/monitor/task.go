package monitor

import (
	"time"

	"github.com/google/uuid"

	"github.com/PenHsuanWang/file-data-fetcher/internal/format"
)

// State is a processing task's position in its lifecycle.
type State int

const (
	// StateDetected means a filesystem event created the task.
	StateDetected State = iota
	// StateStabilizing means the task is being polled for write stability.
	StateStabilizing
	// StateStable means two consecutive polls saw identical samples.
	StateStable
	// StateParsing means the file content is being decoded into records.
	StateParsing
	// StateValidating means parsed records are being checked against the schema.
	StateValidating
	// StatePersisting means validated records are being handed to the backend.
	StatePersisting
	// StateDone is the terminal success state.
	StateDone
	// StateSkipped is the terminal state for duplicate content.
	StateSkipped
	// StateFailed is the terminal state for any reported failure.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateDetected:
		return "detected"
	case StateStabilizing:
		return "stabilizing"
	case StateStable:
		return "stable"
	case StateParsing:
		return "parsing"
	case StateValidating:
		return "validating"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reason classifies why a task ended in a non-Done terminal state. Every
// reason is local to its task: none aborts the monitor loop or affects other
// in-flight tasks.
type Reason int

const (
	// ReasonNone marks a non-terminal transition or a successful completion.
	ReasonNone Reason = iota
	// ReasonVanished: the file disappeared between stability polls.
	ReasonVanished
	// ReasonStabilityTimeout: the file never stabilized within the allowed polls.
	ReasonStabilityTimeout
	// ReasonUnsupportedFormat: no parser registered for the extension.
	ReasonUnsupportedFormat
	// ReasonParseError: the parser rejected the file content.
	ReasonParseError
	// ReasonValidationError: a record failed schema validation.
	ReasonValidationError
	// ReasonPersistError: the backend failed to persist the record set.
	ReasonPersistError
	// ReasonDuplicateSkip: identical content was already accepted. Not a true
	// failure, an intentional no-op.
	ReasonDuplicateSkip
)

// String returns a human-readable representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonVanished:
		return "vanished"
	case ReasonStabilityTimeout:
		return "stability timeout"
	case ReasonUnsupportedFormat:
		return "unsupported format"
	case ReasonParseError:
		return "parse error"
	case ReasonValidationError:
		return "validation error"
	case ReasonPersistError:
		return "persist error"
	case ReasonDuplicateSkip:
		return "duplicate skip"
	default:
		return "unknown"
	}
}

// Task is the unit of work scheduled onto the processing timeline: one
// watched path moving through the lifecycle. Tasks are owned exclusively by
// the monitor's run loop and never touched from the notification thread.
type Task struct {
	// ID uniquely identifies the task across its log lines.
	ID string

	// Path is the watched file.
	Path string

	// DetectedAt is when the filesystem event was handed off.
	DetectedAt time.Time

	// State is the current lifecycle position.
	State State

	// Polls counts stability checks that did not report stable.
	Polls int

	// Fingerprint is the content checksum, set once the file is stable.
	Fingerprint string

	parser format.Parser

	// stableSeen records that the Stable transition was already reported,
	// so a read retry does not re-emit it.
	stableSeen bool
}

func newTask(path string, parser format.Parser) *Task {
	return &Task{
		ID:         uuid.New().String(),
		Path:       path,
		DetectedAt: time.Now(),
		State:      StateDetected,
		parser:     parser,
	}
}

// TaskEvent is the structured lifecycle event emitted on every task state
// transition. It carries enough context (path, fingerprint, stage, reason)
// to reconstruct after the fact what happened to any given file.
type TaskEvent struct {
	TaskID      string
	Path        string
	Fingerprint string
	State       State
	Reason      Reason
	Records     int
	Err         error
	Time        time.Time
}

// Observer receives task lifecycle events. Implementations must not block:
// they run on the processing timeline. The dashboard handler and tests are
// the expected consumers.
type Observer interface {
	OnTaskEvent(ev TaskEvent)
}
