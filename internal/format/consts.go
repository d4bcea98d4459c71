// Package format houses the low-level block codec for the heap layout. The
// goal is to keep every raw byte access to the arena in one focused place so
// higher-level packages can reason about blocks, offsets, and free-list links
// without touching the packed representation themselves.
package format

const (
	// WordSize is the size of a header or footer word in bytes.
	WordSize = 8

	// Alignment is the required alignment of block start offsets and sizes.
	// Every block size is a multiple of 16 bytes, which is also why the low
	// four bits of a packed word are free to hold flags.
	Alignment = 16

	// AlignmentMask is the bitmask used for aligning to 16-byte boundaries
	// (Alignment - 1).
	AlignmentMask = Alignment - 1

	// MinBlockSize is the smallest legal block size in bytes. A block of this
	// size ("mini block") has a reduced layout: no footer, and its backward
	// free-list link lives in the header's size bits.
	MinBlockSize = 16

	// NilOff is the null block offset. Offset 0 always holds the prologue
	// word, so it can never refer to a real block or a free-list node.
	NilOff uint64 = 0
)

const (
	// allocMask isolates the allocation bit of a packed word.
	allocMask = uint64(0x1)

	// prevAllocMask isolates the predecessor-allocation bit.
	prevAllocMask = uint64(0x2)

	// miniMask isolates the minimum-size bit. When set, the decoded size is
	// MinBlockSize regardless of the size bits, which frees those bits for
	// the mini block's backward free-list link.
	miniMask = uint64(0x4)

	// flagMask covers the low four bits reserved for flags.
	flagMask = uint64(0xF)

	// sizeMask extracts the size (or a mini block's backward link) from a
	// packed word.
	sizeMask = ^flagMask
)
