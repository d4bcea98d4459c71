package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Ref is a caller-visible block reference: the offset of the block's payload
// within the arena. The zero Ref is the null reference.
type Ref uint64

// NilRef is the null block reference.
const NilRef Ref = 0

// Allocator carves blocks out of a growable arena using boundary tags and
// segregated free lists. Instances are not safe for concurrent use; callers
// must serialize access externally.
type Allocator struct {
	h     *heap.Heap
	cfg   Config
	roots [NumBuckets]uint64
	start uint64
	stats Stats
}

// New bootstraps an allocator over h, which must be an empty heap. The arena
// is framed with prologue and epilogue sentinels and extended by one chunk.
func New(h *heap.Heap, cfg *Config) (*Allocator, error) {
	a := &Allocator{h: h, cfg: normalizeConfig(cfg)}
	if _, err := h.Extend(2 * format.WordSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrowFail, err)
	}
	b := h.Bytes()
	format.WriteHeader(b, 0, format.Pack(0, true, true))
	format.WriteHeader(b, format.WordSize, format.Pack(0, true, true))
	a.start = format.WordSize
	if _, err := a.extendHeap(a.cfg.ChunkSize); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the underlying heap.
func (a *Allocator) Close() error {
	return a.h.Close()
}

// Malloc allocates a block with at least size payload bytes and returns its
// reference together with the payload slice. A zero size returns the null
// reference. The slice is invalidated by the next call that may grow the
// heap; use Payload to re-resolve a reference.
func (a *Allocator) Malloc(size uint64) (Ref, []byte, error) {
	if size == 0 {
		return NilRef, nil, nil
	}
	asize, err := adjustedSize(size)
	if err != nil {
		return NilRef, nil, err
	}
	off, err := a.findFit(asize)
	if err != nil {
		return NilRef, nil, err
	}
	a.removeFree(off)
	a.placeBlock(off, asize)
	a.stats.AllocCalls++
	a.stats.BytesAllocated += format.SizeOf(format.ReadHeader(a.h.Bytes(), off))
	p := format.PayloadOff(off)
	debugLogf("malloc size=%d asize=%d ref=%#x", size, asize, p)
	return Ref(p), a.payloadSlice(off), nil
}

// Free returns the block at ref to the free lists, eagerly coalescing with
// free address-order neighbors. The null reference is a no-op. Freeing a
// reference that was never returned by this allocator corrupts the heap
// unless Strict mode is enabled.
func (a *Allocator) Free(ref Ref) error {
	if ref == NilRef {
		return nil
	}
	off, err := a.resolve(ref)
	if err != nil {
		return err
	}
	b := a.h.Bytes()
	hdr := format.ReadHeader(b, off)
	if a.cfg.Strict && !format.IsAllocated(hdr) {
		return ErrNotAllocated
	}
	size := format.SizeOf(hdr)
	format.WriteBlock(b, off, size, false, format.IsPrevAllocated(hdr))
	a.insertFree(off, size)
	merged := a.coalesce(off)
	a.updateNext(merged, false)
	a.stats.FreeCalls++
	a.stats.BytesFreed += size
	debugLogf("free ref=%#x size=%d merged=%#x", ref, size, merged)
	return nil
}

// Calloc allocates a zeroed block with room for count elements of the given
// size. Overflowing count*size fails with ErrSizeOverflow; a zero count or
// size returns the null reference.
func (a *Allocator) Calloc(count, size uint64) (Ref, []byte, error) {
	if count == 0 || size == 0 {
		return NilRef, nil, nil
	}
	total, ok := buf.MulOverflowSafe(count, size)
	if !ok {
		return NilRef, nil, ErrSizeOverflow
	}
	ref, p, err := a.Malloc(total)
	if err != nil {
		return NilRef, nil, err
	}
	// The block may be recycled; the whole payload is cleared, not just
	// the requested bytes.
	clear(p)
	return ref, p, nil
}

// Realloc resizes the block at ref to at least size payload bytes, copying
// the common prefix of the old payload. A null ref behaves like Malloc; a
// zero size behaves like Free. The returned reference is always a fresh
// block; the old one is released on success. On failure the old block is
// left untouched.
func (a *Allocator) Realloc(ref Ref, size uint64) (Ref, []byte, error) {
	if ref == NilRef {
		return a.Malloc(size)
	}
	if size == 0 {
		return NilRef, nil, a.Free(ref)
	}
	oldOff, err := a.resolve(ref)
	if err != nil {
		return NilRef, nil, err
	}
	if a.cfg.Strict && !format.IsAllocated(format.ReadHeader(a.h.Bytes(), oldOff)) {
		return NilRef, nil, ErrNotAllocated
	}
	newRef, newPayload, err := a.Malloc(size)
	if err != nil {
		return NilRef, nil, err
	}
	// Growth may have moved the arena, so the old payload is re-resolved
	// only after Malloc.
	copy(newPayload, a.payloadSlice(oldOff))
	if err := a.Free(ref); err != nil {
		return NilRef, nil, err
	}
	return newRef, newPayload, nil
}

// Payload returns the payload slice of the allocated block at ref. The slice
// is invalidated by the next call that may grow the heap.
func (a *Allocator) Payload(ref Ref) ([]byte, error) {
	off, err := a.resolve(ref)
	if err != nil {
		return nil, err
	}
	if !format.IsAllocated(format.ReadHeader(a.h.Bytes(), off)) {
		return nil, ErrNotAllocated
	}
	return a.payloadSlice(off), nil
}

// PayloadSize returns the usable payload size of the allocated block at ref,
// which may exceed the size originally requested.
func (a *Allocator) PayloadSize(ref Ref) (uint64, error) {
	off, err := a.resolve(ref)
	if err != nil {
		return 0, err
	}
	hdr := format.ReadHeader(a.h.Bytes(), off)
	if !format.IsAllocated(hdr) {
		return 0, ErrNotAllocated
	}
	return format.SizeOf(hdr) - format.WordSize, nil
}

// Bytes exposes the arena contents for validation.
func (a *Allocator) Bytes() []byte { return a.h.Bytes() }

// Start returns the offset of the first block header.
func (a *Allocator) Start() uint64 { return a.start }

// End returns the offset of the epilogue sentinel.
func (a *Allocator) End() uint64 { return uint64(a.h.Size()) - format.WordSize }

// BucketHead returns the head offset of free-list bucket i, or zero when the
// bucket is empty.
func (a *Allocator) BucketHead(i int) uint64 { return a.roots[i] }

// adjustedSize converts a payload size to a block size: header word added,
// rounded up to the alignment, floored at the minimum block size.
func adjustedSize(size uint64) (uint64, error) {
	total, ok := buf.AddOverflowSafe(size, format.WordSize)
	if !ok {
		return 0, ErrSizeOverflow
	}
	asize := format.AlignUp(total)
	if asize < total {
		return 0, ErrSizeOverflow
	}
	if asize < format.MinBlockSize {
		asize = format.MinBlockSize
	}
	return asize, nil
}

// resolve validates a reference's range and alignment and returns the block
// header offset.
func (a *Allocator) resolve(ref Ref) (uint64, error) {
	p := uint64(ref)
	if p < a.start+format.WordSize || p >= a.End() || !format.IsAligned(p) {
		return format.NilOff, ErrBadRef
	}
	return format.BlockOff(p), nil
}

// payloadSlice returns the payload bytes of the allocated block at off.
func (a *Allocator) payloadSlice(off uint64) []byte {
	b := a.h.Bytes()
	size := format.SizeOf(format.ReadHeader(b, off))
	return b[off+format.WordSize : off+size]
}

// findFit locates a free block of at least asize bytes, growing the heap as
// needed. Growth always produces a fitting block, so at most one extension
// happens per call.
func (a *Allocator) findFit(asize uint64) (uint64, error) {
	for {
		if off, ok := a.searchBuckets(asize); ok {
			return off, nil
		}
		grow := asize
		if grow < a.cfg.ChunkSize {
			grow = a.cfg.ChunkSize
		}
		if _, err := a.extendHeap(grow); err != nil {
			return format.NilOff, fmt.Errorf("%w: %w", ErrNoSpace, err)
		}
	}
}

// searchBuckets runs a bounded best-fit scan of the home bucket, then falls
// back to the head of the first non-empty larger bucket, whose every block
// is guaranteed to fit.
func (a *Allocator) searchBuckets(asize uint64) (uint64, bool) {
	b := a.h.Bytes()
	idx := bucketOf(asize)
	best := format.NilOff
	var bestSize uint64
	fits := 0
	for off := a.roots[idx]; off != format.NilOff; off = format.NextFree(b, off) {
		a.stats.FitScans++
		size := format.SizeOf(format.ReadHeader(b, off))
		if size < asize {
			continue
		}
		if best == format.NilOff || size < bestSize {
			best, bestSize = off, size
		}
		if bestSize == asize {
			break
		}
		fits++
		if fits >= a.cfg.MaxFitScan {
			break
		}
	}
	if best != format.NilOff {
		return best, true
	}
	for i := idx + 1; i < NumBuckets; i++ {
		if off := a.roots[i]; off != format.NilOff {
			a.stats.FitScans++
			return off, true
		}
	}
	return format.NilOff, false
}

// placeBlock marks the block at off allocated for an adjusted size of asize,
// splitting off the remainder as a new free block when it can stand alone.
func (a *Allocator) placeBlock(off, asize uint64) {
	b := a.h.Bytes()
	hdr := format.ReadHeader(b, off)
	size := format.SizeOf(hdr)
	prevAlloc := format.IsPrevAllocated(hdr)
	if size-asize >= format.MinBlockSize {
		format.WriteBlock(b, off, asize, true, prevAlloc)
		rem := off + asize
		format.WriteBlock(b, rem, size-asize, false, true)
		a.insertFree(rem, size-asize)
		a.stats.SplitCount++
		return
	}
	format.WriteBlock(b, off, size, true, prevAlloc)
	a.updateNext(off, true)
}

// coalesce merges the free block at off with free address-order neighbors
// and returns the offset of the merged block. The block must already be on
// its free list.
func (a *Allocator) coalesce(off uint64) uint64 {
	b := a.h.Bytes()
	hdr := format.ReadHeader(b, off)
	size := format.SizeOf(hdr)
	withPrev := !format.IsPrevAllocated(hdr)
	next := off + size
	nextHdr := format.ReadHeader(b, next)
	withNext := !format.IsAllocated(nextHdr)

	if !withPrev && !withNext {
		return off
	}
	a.removeFree(off)
	newPrevAlloc := !withPrev
	if withNext {
		a.removeFree(next)
		size += format.SizeOf(nextHdr)
	}
	if withPrev {
		prev, ok := format.PrevOff(b, off)
		if ok {
			prevHdr := format.ReadHeader(b, prev)
			a.removeFree(prev)
			size += format.SizeOf(prevHdr)
			newPrevAlloc = format.IsPrevAllocated(prevHdr)
			off = prev
		}
	}
	format.WriteBlock(b, off, size, false, newPrevAlloc)
	a.insertFree(off, size)
	switch {
	case withPrev && withNext:
		a.stats.CoalesceBoth++
	case withNext:
		a.stats.CoalesceForward++
	default:
		a.stats.CoalesceBackward++
	}
	return off
}

// updateNext rewrites the prev-allocated bit of the block following off,
// refreshing that block's footer when it is free and carries one.
func (a *Allocator) updateNext(off uint64, allocated bool) {
	b := a.h.Bytes()
	next := format.NextOff(b, off)
	format.SetPrevAllocated(b, next, allocated)
	w := format.ReadHeader(b, next)
	if !format.IsAllocated(w) && !format.IsMini(w) {
		format.WriteFooter(b, next)
	}
}

// extendHeap grows the arena by n bytes (16-aligned), recycling the old
// epilogue word as the new block's header, writing a fresh epilogue, and
// coalescing with a free tail. Returns the offset of the resulting free
// block.
func (a *Allocator) extendHeap(n uint64) (uint64, error) {
	prev, err := a.h.Extend(int64(n))
	if err != nil {
		return format.NilOff, fmt.Errorf("%w: %v", ErrGrowFail, err)
	}
	b := a.h.Bytes()
	off := uint64(prev) - format.WordSize
	prevAlloc := format.IsPrevAllocated(format.ReadHeader(b, off))
	format.WriteBlock(b, off, n, false, prevAlloc)
	format.WriteHeader(b, off+n, format.Pack(0, true, false))
	a.insertFree(off, n)
	merged := a.coalesce(off)
	a.stats.GrowCalls++
	a.stats.GrowBytes += n
	debugLogf("grow n=%d block=%#x heap=%d", n, merged, a.h.Size())
	a.dumpState()
	return merged, nil
}
