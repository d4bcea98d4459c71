package format

// Alignment utilities for the heap layout. Block sizes and start offsets must
// stay on 16-byte boundaries so payload offsets come out 16-byte aligned and
// the low bits of packed words remain free for flags.

// AlignUp returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	AlignUp(1)  = 16
//	AlignUp(16) = 16
//	AlignUp(17) = 32
func AlignUp(n uint64) uint64 {
	return (n + AlignmentMask) & ^uint64(AlignmentMask)
}

// IsAligned reports whether n sits on a 16-byte boundary.
func IsAligned(n uint64) bool {
	return n&AlignmentMask == 0
}
