// Package fault describes the outcome of a failed call against the Riak CS
// backend. Gateways never return raw client errors; they return a *Fault
// tagged with the category the broker needs to tell apart.
package fault

import (
	"errors"
	"net"
	"reflect"

	pkgerrors "github.com/pkg/errors"
)

type Kind int

const (
	Other Kind = iota
	Timeout
	Unavailable
	Conflict
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case Unavailable:
		return "unavailable"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not-found"
	default:
		return "other"
	}
}

// Fault is a backend failure. Type is the backend error code when the backend
// reported one, otherwise the Go type name of the underlying error.
type Fault struct {
	Kind    Kind
	Type    string
	Message string
	Err     error
}

func New(kind Kind, faultType, message string) *Fault {
	return &Fault{
		Kind:    kind,
		Type:    faultType,
		Message: message,
	}
}

// Wrap tags err with kind. If err already is a *Fault it is returned as is.
func Wrap(kind Kind, err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	if kind == Other && IsTimeout(err) {
		kind = Timeout
	}
	return &Fault{
		Kind:    kind,
		Type:    TypeName(err),
		Message: pkgerrors.Cause(err).Error(),
		Err:     err,
	}
}

func (f *Fault) Error() string {
	return f.Type + ": " + f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Is matches faults of the same kind and type, so sentinel faults such as
// awss3.ErrBucketDoesNotExist can be compared with errors.Is.
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	if !ok {
		return false
	}
	return f.Kind == t.Kind && f.Type == t.Type
}

// KindOf reports the kind of the first *Fault in err's chain. Errors that are
// not faults are reported as Timeout when they are network timeouts and Other
// otherwise.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	if IsTimeout(err) {
		return Timeout
	}
	return Other
}

func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// TypeName returns the bare type name of err's root cause, e.g. "MyError"
// for a *pkg.MyError.
func TypeName(err error) string {
	t := reflect.TypeOf(pkgerrors.Cause(err))
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
