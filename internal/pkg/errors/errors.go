package errors

import "errors"

var (
	// ErrValidation marks malformed caller input: empty text, undecodable or
	// zero-area images, unknown batch kinds.
	ErrValidation = errors.New("validation failed")
	// ErrEncoding marks an embedding backend failure.
	ErrEncoding = errors.New("encoding failed")
	// ErrCache marks a durable-tier transport or serialization failure. It is
	// always absorbed inside the cache layer and never reaches a caller.
	ErrCache = errors.New("cache failure")
	// ErrDegenerateVector marks an attempt to normalize a zero-norm vector.
	ErrDegenerateVector = errors.New("degenerate vector")
	// ErrDimensionMismatch marks a similarity call over vectors of different
	// lengths. Mismatched vectors are never truncated or padded.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDegenerateVector) ||
		errors.Is(err, ErrDimensionMismatch)
}

func IsEncoding(err error) bool {
	return errors.Is(err, ErrEncoding)
}
