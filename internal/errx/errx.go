// Package errx provides application error kinds shared by the resolver layer
// and the GraphQL transport. Each kind maps to one extensions.code value in
// the response envelope.
package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	// Unknown errors come from collaborators and are passed through unchanged.
	Unknown Kind = iota
	Invalid
	Unauthenticated
	Conflict
	Credential
	NotFound
	Unavailable
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

// Errorf builds an error of the given kind from a formatted message.
func Errorf(op string, kind Kind, format string, args ...any) error {
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  fmt.Errorf(format, args...),
	}
}

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case Invalid:
		return "Invalid"
	case Unauthenticated:
		return "Unauthenticated"
	case Conflict:
		return "Conflict"
	case Credential:
		return "Credential"
	case NotFound:
		return "NotFound"
	case Unavailable:
		return "Unavailable"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Code is the GraphQL extensions.code for the kind.
func (k Kind) Code() string {
	switch k {
	case Invalid:
		return "BAD_USER_INPUT"
	case Unauthenticated:
		return "UNAUTHENTICATED"
	case Conflict:
		return "CONFLICT"
	case Credential:
		return "INVALID_CREDENTIALS"
	case NotFound:
		return "NOT_FOUND"
	case Unavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_SERVER_ERROR"
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

// KindOf returns the kind of the outermost *Error in the chain.
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

// Message returns the client-facing text of err: the message of the first
// cause below the *Error wrappers, without the Op prefixes.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for {
		e, ok := err.(*Error)
		if !ok || e.Err == nil {
			return err.Error()
		}
		err = e.Err
	}
}
