package instances

import (
	"errors"

	"github.com/cloud-gov/riak-cs-broker/fault"
)

type Kind string

const (
	KindInstanceNotFound     Kind = "instance-not-found"
	KindBindingAlreadyExists Kind = "binding-already-exists"
	KindBindingNotFound      Kind = "binding-not-found"
	KindUnavailable          Kind = "unavailable"
	KindClientError          Kind = "client-error"
)

// Error is the only error type returned by Registry and Bindings. Use
// errors.Is with the exported sentinels to test the kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrInstanceNotFound     = &Error{Kind: KindInstanceNotFound, Message: "instance not found"}
	ErrBindingAlreadyExists = &Error{Kind: KindBindingAlreadyExists, Message: "binding already exists"}
	ErrBindingNotFound      = &Error{Kind: KindBindingNotFound, Message: "binding not found"}
	ErrUnavailable          = &Error{Kind: KindUnavailable, Message: "riak cs unavailable"}
	ErrClientError          = &Error{Kind: KindClientError, Message: "riak cs client error"}
)

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// classify maps a backend failure onto the broker's error kinds. Errors that
// are already classified pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return err
	}

	f := fault.Wrap(fault.Other, err)
	switch f.Kind {
	case fault.Timeout, fault.Unavailable:
		return newError(KindUnavailable, "Riak CS unavailable: "+f.Error(), f)
	case fault.Conflict:
		return newError(KindBindingAlreadyExists, f.Error(), f)
	default:
		return newError(KindClientError, f.Error(), f)
	}
}
