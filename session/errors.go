// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
)

// ErrorKind classifies session failures so that callers can branch on
// the class of problem without string matching.
type ErrorKind uint8

const (
	// KindInvalidParameters: connect was called without the required
	// session parameters. Fatal to that call, not to the process.
	KindInvalidParameters ErrorKind = iota + 1

	// KindInvalidAxisConfiguration: the axis configuration failed
	// validation. Fatal — the configuration must not be used.
	KindInvalidAxisConfiguration

	// KindTransportFailure: a connect, send, or receive operation
	// failed. Recoverable mid-session via the reconnect policy; surfaced
	// only when the retry budget is exhausted or the initial connect
	// fails.
	KindTransportFailure

	// KindCapabilityMissing: the environment lacks a capability the
	// transport requires. Detected once before the first connect and
	// never retried.
	KindCapabilityMissing
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidParameters:
		return "invalid-parameters"
	case KindInvalidAxisConfiguration:
		return "invalid-axis-configuration"
	case KindTransportFailure:
		return "transport-failure"
	case KindCapabilityMissing:
		return "capability-missing"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is the structured error type for session failures. Callers
// extract it with errors.As, or use KindOf for the common case.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("session: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from err, or zero when err is not a
// session error.
func KindOf(err error) ErrorKind {
	var sessionErr *Error
	if errors.As(err, &sessionErr) {
		return sessionErr.Kind
	}
	return 0
}

// newError builds an Error with a formatted message.
func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapError builds an Error wrapping an underlying cause.
func wrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}
