package probe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks probe output that does not have the expected shape.
var ErrMalformed = errors.New("malformed probe output")

// ExecutionError reports a probe that could not be launched or exited non-zero.
type ExecutionError struct {
	Probe  string
	Err    error
	Stderr string
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("probe %s execution failed: %v", e.Probe, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ParseError reports probe output that could not be interpreted.
// Line is the zero-based line index, or -1 when the whole output is at fault.
type ParseError struct {
	Probe string
	Line  int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("probe %s parse failed: %v", e.Probe, e.Err)
	}
	return fmt.Sprintf("probe %s parse failed at line %d: %v", e.Probe, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AlignmentError reports absolute and percentage probes that disagree on node count.
type AlignmentError struct {
	AbsoluteLines int
	PercentLines  int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("probe alignment mismatch: absolute probe has %d lines, percentage probe has %d",
		e.AbsoluteLines, e.PercentLines)
}
