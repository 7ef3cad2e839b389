// Package negotiation defines the error taxonomy shared by the
// negotiation engine and its callers. Every failure an operation can
// produce is one of four recoverable kinds, each carrying a message
// specific enough to render a user-facing explanation.
package negotiation

import (
	"errors"
	"fmt"
)

// Kind classifies a negotiation failure.
type Kind string

const (
	// KindNotFound means the referenced offer or item does not exist.
	KindNotFound Kind = "not_found"
	// KindUnauthorized means the actor is not the party allowed to
	// perform the requested transition.
	KindUnauthorized Kind = "unauthorized"
	// KindInvalidState means a status precondition was violated, such
	// as acting on a resolved offer or double-marking received.
	KindInvalidState Kind = "invalid_state"
	// KindValidation means the input itself is invalid, such as a
	// negative amount or a self-targeted offer.
	KindValidation Kind = "validation"
)

// Error is a classified negotiation failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes two negotiation errors of the same kind match under
// errors.Is, so callers can compare against the exported sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrInvalidState = &Error{Kind: KindInvalidState, Message: "invalid state"}
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation failed"}
)

// NewNotFound reports a missing offer or item.
func NewNotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewUnauthorized reports an actor acting on a record that is not theirs to act on.
func NewUnauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidState reports a violated status precondition.
func NewInvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NewValidation reports invalid input.
func NewValidation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or an empty kind for errors outside
// the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
