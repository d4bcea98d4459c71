package heap

import "errors"

var (
	// ErrBadSize indicates an Extend request for zero or negative bytes.
	ErrBadSize = errors.New("heap: extend size must be positive")

	// ErrLimit indicates that growing would exceed the source's size limit
	// or reservation.
	ErrLimit = errors.New("heap: size limit exceeded")

	// ErrClosed indicates an operation on a closed source.
	ErrClosed = errors.New("heap: source closed")
)
