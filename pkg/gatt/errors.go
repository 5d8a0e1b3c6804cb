package gatt

import (
	"errors"
	"fmt"
)

// Decode errors. Every failure returned by this package and by the characteristic
// decoders built on it matches exactly one of these with errors.Is.
var (
	// ErrOutOfBounds indicates the buffer is shorter than a fixed-width field requires.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrInvalidLength indicates an exact-length value was received with the wrong length.
	ErrInvalidLength = errors.New("invalid length")

	// ErrTruncatedField indicates a flag announced an optional field but the buffer ended first.
	ErrTruncatedField = errors.New("truncated optional field")

	// ErrOutOfRange indicates an SFLOAT mantissa or exponent that cannot be encoded.
	ErrOutOfRange = errors.New("out of range")
)

// TruncatedFieldError names the optional field that a flag announced but the buffer could not hold.
type TruncatedFieldError struct {
	Field string
	Need  int // bytes the field requires
	Have  int // bytes that remained
}

func (e *TruncatedFieldError) Error() string {
	return fmt.Sprintf("%s: %s needs %d bytes, %d remaining", ErrTruncatedField, e.Field, e.Need, e.Have)
}

// Is reports whether target is ErrTruncatedField.
func (e *TruncatedFieldError) Is(target error) bool {
	return target == ErrTruncatedField
}

// KindOf returns the name of the decode error kind carried by err,
// or an empty string if err is nil or not a decode error.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTruncatedField):
		return "TruncatedOptionalField"
	case errors.Is(err, ErrOutOfBounds):
		return "OutOfBounds"
	case errors.Is(err, ErrInvalidLength):
		return "InvalidLength"
	case errors.Is(err, ErrOutOfRange):
		return "OutOfRange"
	default:
		return ""
	}
}
