package alloc

import (
	"math/bits"

	"github.com/joshuapare/heapkit/internal/format"
)

// NumBuckets is the number of segregated free lists.
const NumBuckets = 15

// bucketOf maps a block size to its free-list bucket. Bucket 0 holds
// minimum-size blocks only; bucket i holds sizes in [2^(i+4), 2^(i+5)),
// except the last bucket, which is unbounded above.
func bucketOf(size uint64) int {
	if size == format.MinBlockSize {
		return 0
	}
	idx := bits.Len64(size>>4) - 1
	if idx > NumBuckets-1 {
		idx = NumBuckets - 1
	}
	return idx
}

// BucketOf reports the free-list bucket a block of the given size lives in.
func BucketOf(size uint64) int {
	return bucketOf(size)
}

// insertFree pushes the free block at off onto the head of its size bucket.
func (a *Allocator) insertFree(off, size uint64) {
	b := a.h.Bytes()
	idx := bucketOf(size)
	head := a.roots[idx]
	format.SetNextFree(b, off, head)
	format.SetPrevFree(b, off, format.NilOff)
	if head != format.NilOff {
		format.SetPrevFree(b, head, off)
	}
	a.roots[idx] = off
}

// removeFree unlinks the free block at off from its size bucket. The block's
// header must still describe it as free; the bucket is derived from the
// decoded size.
func (a *Allocator) removeFree(off uint64) {
	b := a.h.Bytes()
	idx := bucketOf(format.SizeOf(format.ReadHeader(b, off)))
	next := format.NextFree(b, off)
	prev := format.PrevFree(b, off)
	if prev == format.NilOff {
		a.roots[idx] = next
	} else {
		format.SetNextFree(b, prev, next)
	}
	if next != format.NilOff {
		format.SetPrevFree(b, next, prev)
	}
}
