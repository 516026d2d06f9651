package future

import (
	"errors"
	"fmt"
	"strings"
)

// ErrForeignClosed is the blooper error delivered when a foreign
// channel hint closes without ever sending a signal.
var ErrForeignClosed = errors.New("future: foreign channel closed without a signal")

// ProtocolError reports a misuse of the cue state machine: blocking a
// non-Unused cue, revealing a non-Pending cue, or any other violation
// spec.md calls a "fatal programming error". ProtocolError is never
// recovered locally; it propagates as a panic.
type ProtocolError struct {
	Op  string
	Msg string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("future: protocol violation in %s: %s", e.Op, e.Msg)
}

// AggregateError collects the bloopers of every child hint in an Any
// family once none of them produced a Prompt.
type AggregateError struct {
	Errs []error
}

func (e *AggregateError) Error() string {
	if len(e.Errs) == 0 {
		return "future: Any over zero hints"
	}
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("future: all %d hints bloopered: %s", len(e.Errs), strings.Join(parts, "; "))
}

func (e *AggregateError) Unwrap() []error { return e.Errs }
