package model

import "errors"

// ErrInvalidInput is returned when a required transaction field is
// absent. It is fatal: the pipeline aborts without producing a report.
var ErrInvalidInput = errors.New("invalid input")

// ErrParseError is returned when a transaction cell (timestamp, amount)
// cannot be coerced to its parsed type. It is fatal, same as
// ErrInvalidInput.
var ErrParseError = errors.New("parse error")

// IsInvalidInput reports whether err (or one it wraps) is ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsParseError reports whether err (or one it wraps) is ErrParseError.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParseError)
}
