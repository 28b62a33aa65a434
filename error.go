// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

import (
	"errors"
	"fmt"
)

// Kind classifies a failure flowing through the promise graph.
type Kind uint8

const (
	// Failed is the ordinary failure kind; panics recovered from
	// continuations and most rejections carry it.
	Failed Kind = iota
	// Overloaded marks failures caused by resource exhaustion.
	Overloaded
	// Disconnected marks failures caused by a peer going away, including
	// an executor whose target loop has exited.
	Disconnected
	// Unimplemented marks operations the collaborator does not support.
	Unimplemented
)

// String returns the kind's display name.
func (k Kind) String() string {
	switch k {
	case Failed:
		return "failed"
	case Overloaded:
		return "overloaded"
	case Disconnected:
		return "disconnected"
	case Unimplemented:
		return "unimplemented"
	default:
		return "unknown"
	}
}

// Error is the failure value the core originates and propagates.
// It carries a Kind and a displayable description.
type Error struct {
	kind Kind
	msg  string
}

// NewError creates an Error of kind k with description msg.
func NewError(k Kind, msg string) *Error {
	return &Error{kind: k, msg: msg}
}

// Errorf creates an Error of kind k with a formatted description.
func Errorf(k Kind, format string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.msg
}

// Kind returns the failure kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Is reports whether target is an *Error of the same kind, making
// sentinel comparisons with errors.Is kind-based.
func (e *Error) Is(target error) bool {
	var pe *Error
	if errors.As(target, &pe) {
		return pe.kind == e.kind
	}
	return false
}

// KindOf extracts the failure kind of err.
// Errors that did not originate here classify as Failed.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.kind
	}
	return Failed
}

// ErrBrokenFulfiller rejects a promise whose fulfiller was released
// without settling it.
var ErrBrokenFulfiller = NewError(Failed, "fulfiller was released without fulfilling the promise")

// ErrDisconnected marks work abandoned because the target loop exited.
var ErrDisconnected = NewError(Disconnected, "event loop exited before the work completed")

// errFiberCanceled unwinds a fiber destroyed mid-suspension.
// It never surfaces outside the fiber's own stack.
var errFiberCanceled = NewError(Failed, "fiber canceled")

// recoverToError converts a recovered panic value to an error.
func recoverToError(v any) error {
	switch e := v.(type) {
	case error:
		return e
	default:
		return Errorf(Failed, "panic: %v", e)
	}
}
