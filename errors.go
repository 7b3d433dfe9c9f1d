package xcf

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrKind discriminates the reason a parse or render operation failed. It is
// deliberately small and closed: callers switch on it rather than string
// matching error messages.
type ErrKind int

const (
	// ErrUnsupportedFormat means the magic ID didn't match, or the version
	// string is structurally incompatible.
	ErrUnsupportedFormat ErrKind = iota
	// ErrUnsupportedPrecision means the precision code isn't one of the
	// twelve known values.
	ErrUnsupportedPrecision
	// ErrShortBuffer means a read ran past the end of the buffer.
	ErrShortBuffer
	// ErrMalformedProperty means a property's length is impossible or its
	// payload self-contradicts.
	ErrMalformedProperty
	// ErrMalformedTile means an RLE run overran its channel, or the channel
	// count is inconsistent with the layer type.
	ErrMalformedTile
	// ErrInvalidPointer means a pointer fell outside the buffer, or a cycle
	// was detected while following hierarchy/level pointers.
	ErrInvalidPointer
)

func (k ErrKind) String() string {
	switch k {
	case ErrUnsupportedFormat:
		return "UnsupportedFormat"
	case ErrUnsupportedPrecision:
		return "UnsupportedPrecision"
	case ErrShortBuffer:
		return "ShortBuffer"
	case ErrMalformedProperty:
		return "MalformedProperty"
	case ErrMalformedTile:
		return "MalformedTile"
	case ErrInvalidPointer:
		return "InvalidPointer"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every exported function in this
// package. It carries a Kind for programmatic handling plus a wrapped cause
// for humans.
type Error struct {
	Kind  ErrKind
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("xcf: %s: %v", e.Kind, e.cause)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

func newErr(kind ErrKind, msg string) error {
	return &Error{Kind: kind, cause: errors.New(msg)}
}

func newErrf(kind ErrKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

func wrapErr(kind ErrKind, cause error, msg string) error {
	return &Error{Kind: kind, cause: errors.WithMessage(cause, msg)}
}

func wrapErrf(kind ErrKind, cause error, format string, args ...interface{}) error {
	return &Error{Kind: kind, cause: errors.WithMessage(cause, fmt.Sprintf(format, args...))}
}

// errKind extracts the Kind of an *Error, falling back to
// ErrMalformedProperty for any other error type (should not normally happen,
// since every exported path in this package returns *Error).
func errKind(err error) ErrKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ErrMalformedProperty
}
