package errors

import (
	"fmt"
	"io"
	"os"
)

// Terminator performs the collective abort triggered by a fatal error.
// The core never calls os.Exit directly: the abort is injected so the
// process-group behavior (terminating every cooperating domain together)
// stays with the runtime that owns the process group, and so tests can
// observe fatal escalation without dying.
type Terminator interface {
	Abort(err error)
}

// ProcessTerminator writes the fatal message to its sink and terminates the
// process with a non-zero status. In a multi-domain job the surrounding
// launcher propagates the exit to every cooperating process.
type ProcessTerminator struct {
	Sink io.Writer
	Exit func(code int)
}

// Abort reports the error and exits. It does not return.
func (t *ProcessTerminator) Abort(err error) {
	sink := t.Sink
	if sink == nil {
		sink = os.Stderr
	}
	fmt.Fprintf(sink, "fatal: %v\n", err)

	exit := t.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
}
