package search

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an input document path does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrExtraction marks a failure to extract text for a page range.
	ErrExtraction = errors.New("text extraction failed")

	// ErrUsage is the diagnostic for a phrase that fails matcher
	// preconditions. It accompanies an empty result and is never fatal.
	ErrUsage = errors.New("invalid search phrase")
)

// TaskError is an unexpected failure inside one parallel task.
type TaskError struct {
	Index int
	Label string
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s): %v", e.Index, e.Label, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Policy selects how a dispatcher aggregates when a task fails.
type Policy int

const (
	// AbortOnError propagates the first task failure and discards the run.
	AbortOnError Policy = iota
	// SkipOnError logs the failure and counts the task as contributing
	// zero words and zero matches.
	SkipOnError
)

func (p Policy) String() string {
	switch p {
	case AbortOnError:
		return "abort"
	case SkipOnError:
		return "skip"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration name onto a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "abort", "":
		return AbortOnError, nil
	case "skip":
		return SkipOnError, nil
	default:
		return AbortOnError, fmt.Errorf("unknown failure policy %q", name)
	}
}
