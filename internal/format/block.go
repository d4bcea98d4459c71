package format

// Block codec.
//
// Block layout (all words little-endian, all offsets absolute within the
// arena):
//
//	Offset      Size  Description
//	+0x00       8     Header word: bit 0 allocated, bit 1 prev-allocated,
//	                  bit 2 mini, bits >= 4 size. The mini bit is set
//	                  exactly when size == MinBlockSize, in which case the
//	                  size bits are repurposed as the block's backward
//	                  free-list link while the block is free.
//	+0x08       ...   Payload (allocated) or free-list links (free).
//	+size-0x08  8     Footer mirroring the header. Only present for free
//	                  non-mini blocks.
//
// Free non-mini blocks store their forward link at +0x08 and backward link
// at +0x10. A free mini block has room for one word only: the forward link
// at +0x08, stored with the mini bit OR-ed in so that the word doubles as a
// pseudo-footer. Address-order backward traversal reads the word directly
// before a header; the mini bit there distinguishes a 16-byte free
// predecessor (no real footer) from a larger one.
//
// The heap is bounded by zero-size allocated sentinel words: the prologue at
// offset 0 and the epilogue at the last word. Sentinels are never decoded as
// blocks, so the first real block header sits at offset 8 and payloads land
// on 16-byte boundaries.

// Pack encodes a block's size and allocation flags into a single word. The
// mini bit is derived from the size, never passed in.
func Pack(size uint64, allocated, prevAllocated bool) uint64 {
	word := size
	if allocated {
		word |= allocMask
	}
	if prevAllocated {
		word |= prevAllocMask
	}
	if size == MinBlockSize {
		word |= miniMask
	}
	return word
}

// SizeOf decodes the block size from a packed word. Mini blocks report
// MinBlockSize regardless of the size bits, which may hold a link instead.
func SizeOf(word uint64) uint64 {
	if word&miniMask != 0 {
		return MinBlockSize
	}
	return word & sizeMask
}

// IsAllocated reports the allocation bit of a packed word.
func IsAllocated(word uint64) bool {
	return word&allocMask != 0
}

// IsPrevAllocated reports the predecessor-allocation bit of a packed word.
func IsPrevAllocated(word uint64) bool {
	return word&prevAllocMask != 0
}

// IsMini reports the minimum-size bit of a packed word.
func IsMini(word uint64) bool {
	return word&miniMask != 0
}

// ReadHeader returns the packed header word of the block at off.
func ReadHeader(b []byte, off uint64) uint64 {
	return ReadU64(b, int(off))
}

// WriteHeader stores a packed word at off. Used for sentinels and raw header
// updates; WriteBlock is the usual entry point for real blocks.
func WriteHeader(b []byte, off uint64, word uint64) {
	PutU64(b, int(off), word)
}

// WriteBlock writes the header for a block at off, and the mirrored footer
// when the block is free and large enough to carry one.
func WriteBlock(b []byte, off, size uint64, allocated, prevAllocated bool) {
	word := Pack(size, allocated, prevAllocated)
	PutU64(b, int(off), word)
	if !allocated && size != MinBlockSize {
		PutU64(b, int(off+size-WordSize), word)
	}
}

// WriteFooter refreshes the footer of the free non-mini block at off so it
// mirrors the current header.
func WriteFooter(b []byte, off uint64) {
	word := ReadU64(b, int(off))
	PutU64(b, int(off+SizeOf(word)-WordSize), word)
}

// ReadFooter returns the footer word of the free non-mini block at off.
func ReadFooter(b []byte, off uint64) uint64 {
	return ReadU64(b, int(off+SizeOf(ReadU64(b, int(off)))-WordSize))
}

// SetPrevAllocated rewrites the predecessor-allocation bit of the header at
// off, preserving every other bit (including a mini block's packed link).
func SetPrevAllocated(b []byte, off uint64, prevAllocated bool) {
	word := ReadU64(b, int(off))
	if prevAllocated {
		word |= prevAllocMask
	} else {
		word &= ^prevAllocMask
	}
	PutU64(b, int(off), word)
}

// NextOff returns the offset of the block immediately following the block at
// off in address order. Must not be called on the epilogue.
func NextOff(b []byte, off uint64) uint64 {
	return off + SizeOf(ReadU64(b, int(off)))
}

// PrevOff returns the offset of the block immediately preceding the block at
// off in address order, by reading the word just before the header. Legal
// only when that predecessor is free: a free mini block leaves its mini bit
// there (pseudo-footer), a larger free block a real footer. Returns ok=false
// when the predecessor is the prologue sentinel.
func PrevOff(b []byte, off uint64) (uint64, bool) {
	word := ReadU64(b, int(off-WordSize))
	if IsMini(word) {
		return off - MinBlockSize, true
	}
	size := word & sizeMask
	if size == 0 {
		return NilOff, false
	}
	return off - size, true
}

// PayloadOff returns the payload offset of the block at off.
func PayloadOff(off uint64) uint64 {
	return off + WordSize
}

// BlockOff returns the block offset for a payload offset.
func BlockOff(payload uint64) uint64 {
	return payload - WordSize
}

// NextFree returns the forward free-list link of the free block at off.
func NextFree(b []byte, off uint64) uint64 {
	return ReadU64(b, int(off+WordSize)) & sizeMask
}

// SetNextFree stores the forward free-list link of the free block at off.
// For mini blocks the mini bit is OR-ed into the stored word so that it can
// serve as a pseudo-footer for the block's address-order successor.
func SetNextFree(b []byte, off, next uint64) {
	if IsMini(ReadU64(b, int(off))) {
		next |= miniMask
	}
	PutU64(b, int(off+WordSize), next)
}

// PrevFree returns the backward free-list link of the free block at off. For
// mini blocks the link is recovered from the header's size bits.
func PrevFree(b []byte, off uint64) uint64 {
	word := ReadU64(b, int(off))
	if IsMini(word) {
		return word & sizeMask
	}
	return ReadU64(b, int(off+2*WordSize))
}

// SetPrevFree stores the backward free-list link of the free block at off.
// For mini blocks the link is packed into the header's size bits, keeping
// the flag bits intact.
func SetPrevFree(b []byte, off, prev uint64) {
	word := ReadU64(b, int(off))
	if IsMini(word) {
		PutU64(b, int(off), word&flagMask|prev)
		return
	}
	PutU64(b, int(off+2*WordSize), prev)
}
