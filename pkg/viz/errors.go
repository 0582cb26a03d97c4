package viz

import (
	"errors"
	"fmt"
)

// Operation error taxonomy. Every rejection is reported before any mutation
// is applied, so the structure is unchanged when one of these is returned.
var (
	// ErrValidation reports malformed input or an invalid parameter.
	ErrValidation = errors.New("invalid input")

	// ErrOutOfRange reports an index outside the declared bounds of an array-indexed structure.
	ErrOutOfRange = fmt.Errorf("%w: index out of range", ErrValidation)

	// ErrNotFound reports a search or delete target that is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate reports an insert target that is already present.
	ErrDuplicate = errors.New("already exists")

	// ErrCapacity reports a full fixed-size structure.
	ErrCapacity = errors.New("capacity exceeded")

	// ErrEmpty reports an operation that needs at least one element.
	ErrEmpty = errors.New("structure empty")
)

// ErrorKind classifies an operation error for notices and metrics.
type ErrorKind string

// Error kinds.
const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindDuplicate  ErrorKind = "duplicate"
	KindCapacity   ErrorKind = "capacity"
	KindEmpty      ErrorKind = "empty"
	KindInternal   ErrorKind = "internal"
)

// KindOf classifies err. A nil error has KindNone; unknown errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, ErrCapacity):
		return KindCapacity
	case errors.Is(err, ErrEmpty):
		return KindEmpty
	default:
		return KindInternal
	}
}

// OpError is an operation rejection carrying the operation and offending value.
type OpError struct {
	Op    string
	Value string
	Err   error
}

// Error implements error.
func (e *OpError) Error() string {
	if e.Value == "" {
		return e.Op + ": " + e.Err.Error()
	}

	return e.Op + " " + e.Value + ": " + e.Err.Error()
}

// Unwrap returns the taxonomy error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// Fail builds an OpError for op rejected on value v.
func Fail(op string, v any, err error) *OpError {
	val := ""
	if v != nil {
		val = fmt.Sprint(v)
	}

	return &OpError{Op: op, Value: val, Err: err}
}
