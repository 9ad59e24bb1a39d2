// Package errx provides application error kinds that map cleanly to HTTP status codes.
// Unauthorized and Forbidden are HTTP-centric but live here because the
// identity layer and the link lifecycle both raise them.
package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	NotFound
	Gone
	Conflict
	Invalid
	Unauthorized
	Forbidden
	Unavailable
	Internal
)

// Error is an operation-tagged error with a Kind.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err with op and kind. A nil err yields nil.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case NotFound:
		return "NotFound"
	case Gone:
		return "Gone"
	case Conflict:
		return "Conflict"
	case Invalid:
		return "Invalid"
	case Unauthorized:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case Unavailable:
		return "Unavailable"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// OpOf reports the Op of the outermost *Error in err's chain.
func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the text of the innermost cause, without the Op prefixes
// added by each layer. Use it for client-facing validation messages.
func Message(err error) string {
	var e *Error
	for errors.As(err, &e) && e.Err != nil {
		err = e.Err
	}
	return err.Error()
}
