package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block large enough was found and growth failed.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrGrowFail indicates that extending the heap failed.
	ErrGrowFail = errors.New("alloc: grow failed")

	// ErrBadRef indicates an invalid or out-of-bounds block reference.
	ErrBadRef = errors.New("alloc: bad block reference")

	// ErrNotAllocated indicates an operation on a block that is not currently allocated.
	ErrNotAllocated = errors.New("alloc: block not allocated")

	// ErrSizeOverflow indicates a requested size that overflows uint64 arithmetic.
	ErrSizeOverflow = errors.New("alloc: size overflow")
)
