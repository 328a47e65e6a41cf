// Package errx provides application error kinds that map cleanly to HTTP status codes.
// Some kinds (Unauthorized, TooLarge, BadRequest, MethodNotAllowed) only ever originate
// in the transport layer, but they live here so the rejection handler can match on a
// single closed set.

package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	NotFound
	Conflict
	Constraint
	Invalid
	Unauthorized
	TooLarge
	BadRequest
	MethodNotAllowed
	Internal
)

type Error struct {
	Op   string
	Kind Kind
	Err  error
}

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

// Wrap re-wraps err under op, keeping the kind it already carries.
func Wrap(op string, err error) error {
	return E(op, KindOf(err), err)
}

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	case Constraint:
		return "Constraint"
	case Invalid:
		return "Invalid"
	case Unauthorized:
		return "Unauthorized"
	case TooLarge:
		return "TooLarge"
	case BadRequest:
		return "BadRequest"
	case MethodNotAllowed:
		return "MethodNotAllowed"
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

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Detail returns the message of the innermost error that is not an *Error,
// without the chain of operation names. It is safe to show to clients only
// for kinds whose causes are produced by this application (Invalid, BadRequest).
func Detail(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return err.Error()
		}
		if e.Err == nil {
			return e.Op
		}
		err = e.Err
	}
	return ""
}
