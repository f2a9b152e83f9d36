package executor

import (
	"errors"
	"fmt"
	"strings"
)

// Stage identifies the pipeline stage where a run aborted.
type Stage int

const (
	// StageRules is loading and validating the rules file.
	StageRules Stage = iota
	// StageFiles is loading solution files.
	StageFiles
	// StageRuntime is resolving the runtime from the catalog.
	StageRuntime
	// StageMatch is binding an exercise to its solution file.
	StageMatch
	// StageSubmit is a single execution request.
	StageSubmit
	// StagePace is waiting between submissions.
	StagePace
)

// String returns the string representation of Stage.
func (s Stage) String() string {
	switch s {
	case StageRules:
		return "rules"
	case StageFiles:
		return "files"
	case StageRuntime:
		return "runtime"
	case StageMatch:
		return "match"
	case StageSubmit:
		return "submit"
	case StagePace:
		return "pace"
	default:
		return "unknown"
	}
}

// StageError wraps the first error of a run with where it happened.
// Exercise, Test and Input are only set for stages inside the evaluation loop.
type StageError struct {
	Stage    Stage
	Exercise string
	Test     string
	Input    int // Index of the input within Test; -1 when not applicable
	Err      error
}

// NewStageError creates a StageError outside the evaluation loop.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Input: -1, Err: err}
}

// Error implements the error interface for StageError.
func (e *StageError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Stage.String())
	if e.Exercise != "" {
		sb.WriteString(fmt.Sprintf(" exercise %q", e.Exercise))
	}
	if e.Test != "" {
		sb.WriteString(fmt.Sprintf(" test %q", e.Test))
	}
	if e.Input >= 0 {
		sb.WriteString(fmt.Sprintf(" input #%d", e.Input+1))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded in err, if err is or wraps a StageError.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return 0, false
}
