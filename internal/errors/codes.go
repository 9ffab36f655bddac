// Package errors provides structured error handling for the consistency core.
//
// Every failure surfaced by the core carries a machine-readable Code with a
// fixed classification: benign conditions are returned to the caller as
// ordinary errors (or absent results), while invariant violations are fatal
// and escalate to a collective abort of all cooperating domains. There is no
// partial-failure recovery path: a corrupted local invariant cannot be
// patched locally without risking silent divergence across domains.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Addressing errors
	CodeInvalidTag      Code = "INVALID_TAG"
	CodeLocalTagMissing Code = "LOCAL_TAG_MISSING"

	// Arbitration errors
	CodeUnknownOpClass Code = "UNKNOWN_OP_CLASS"

	// Exchange errors
	CodeUnknownOpKind Code = "UNKNOWN_OP_KIND"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// Fatal reports whether the code is an invariant violation requiring a
// collective abort rather than a recoverable condition.
func (c Code) Fatal() bool {
	switch c {
	case CodeInvalidTag,
		CodeLocalTagMissing,
		CodeUnknownOpClass,
		CodeUnknownOpKind:
		return true
	}
	return false
}

// Error is a classified error value.
type Error struct {
	Code Code
	Msg  string
}

// E builds an Error with a formatted message.
func E(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// CodeOf extracts the Code from an error chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsFatal reports whether the error chain carries a fatal code.
func IsFatal(err error) bool {
	return CodeOf(err).Fatal()
}
