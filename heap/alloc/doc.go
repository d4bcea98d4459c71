// Package alloc provides dynamic block allocation over a growable byte arena.
//
// # Overview
//
// This package implements malloc/free/calloc/realloc semantics for a single
// contiguous heap addressed by integer offsets. Blocks carry boundary tags
// (a packed header word, mirrored by a footer on larger free blocks) and
// free blocks are indexed by segregated free-lists, giving O(1) free and
// near-O(1) allocation with eager coalescing.
//
// # Allocator
//
// The Allocator supports:
//
//   - Malloc(size): allocate a block with at least size payload bytes
//   - Free(ref): return a block to the free lists, coalescing neighbors
//   - Calloc(count, size): overflow-checked, zero-filled allocation
//   - Realloc(ref, size): resize by allocate-copy-free
//
// References are payload offsets into the arena; payload slices returned
// alongside them are invalidated whenever the heap grows, and can be
// re-resolved with Payload.
//
// # Size buckets
//
// Free blocks are indexed by 15 segregated free-lists:
//
//	Bucket  0:        16 bytes (minimum blocks)
//	Bucket  1:   32 -  63
//	Bucket  2:   64 - 127
//	Bucket  3:  128 - 255
//	Bucket  4:  256 - 511
//	Bucket  5:  512 -  1K
//	...
//	Bucket 13:  64K - 128K
//	Bucket 14: 128K+
//
// Allocation scans the home bucket with a bounded best-fit search
// (Config.MaxFitScan candidates), then falls through to the first non-empty
// larger bucket, whose blocks all fit by construction.
//
// # Heap growth
//
// When no free block fits, the allocator extends the heap by
// max(needed, Config.ChunkSize) bytes, formats the new region as one free
// block, and coalesces it with a free tail. Growth failure surfaces as
// ErrNoSpace wrapping ErrGrowFail; the heap is left exactly as it was.
//
// # Usage Example
//
//	h := heap.New(heap.NewSliceSource(0))
//	a, err := alloc.New(h, nil)
//	if err != nil {
//	    return err
//	}
//
//	ref, buf, err := a.Malloc(256)
//	if err != nil {
//	    return err
//	}
//	copy(buf, data)
//
//	// Later, free the block
//	err = a.Free(ref)
//
// # Alignment
//
// All payloads are 16-byte aligned. Requested sizes are rounded up to the
// next aligned block size, so PayloadSize may report more usable bytes than
// were asked for.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap: arena sources (slice, mmap)
//   - github.com/joshuapare/heapkit/heap/verify: heap invariant validation
package alloc
