package rules

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures raised by the game core.
type ErrorKind int

const (
	// KindRule is a precondition violation caused by the caller's input.
	// Nothing was mutated and the command may be retried with corrected input.
	KindRule ErrorKind = iota
	// KindSerialization reports a failure to encode or decode game data.
	KindSerialization
	// KindInvariant reports an internal inconsistency such as a missing
	// opponent or an effect that references a vanished player.
	KindInvariant
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindRule:
		return "rule"
	case KindSerialization:
		return "serialization"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced by the game core.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Rule builds a precondition violation carrying a player-facing message.
func Rule(msg string) error {
	return &Error{Kind: KindRule, Msg: msg}
}

// Rulef is Rule with formatting.
func Rulef(format string, args ...any) error {
	return &Error{Kind: KindRule, Msg: fmt.Sprintf(format, args...)}
}

// Invariantf builds an internal invariant violation.
func Invariantf(format string, args ...any) error {
	return &Error{Kind: KindInvariant, Msg: fmt.Sprintf(format, args...)}
}

// Serialization wraps an encoding failure.
func Serialization(msg string, err error) error {
	return &Error{Kind: KindSerialization, Msg: msg, Err: err}
}

// KindOf reports the kind of a core error. ok is false for foreign errors.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return 0, false
}

// IsRule reports whether err is a precondition violation.
func IsRule(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindRule
}

// IsInvariant reports whether err is an internal invariant violation.
func IsInvariant(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindInvariant
}

// Message returns the player-facing message of a core error, or err.Error()
// for anything else.
func Message(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Msg
	}
	return err.Error()
}
