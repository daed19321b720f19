package packer

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode classifies every DecodeError.
	ErrDecode = errors.New("decode failed")

	// ErrUnknownPackage indicates bytes carrying a package id with no registered type.
	ErrUnknownPackage = errors.New("unknown package id")

	// ErrDuplicatePackage indicates a second registration for the same package id.
	ErrDuplicatePackage = errors.New("package id already registered")

	// ErrNilPackage indicates a nil package was given to Pack.
	ErrNilPackage = errors.New("package is nil")

	// ErrNilBuffer indicates a nil buffer was given to Unpack.
	ErrNilBuffer = errors.New("buffer is nil")
)

// DecodeError reports malformed or truncated package bytes.
type DecodeError struct {
	// ID is the package id read from the header, or 0 when the header was unreadable.
	ID     int64
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode package %d: %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode package %d: %s", e.ID, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports DecodeError as ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
