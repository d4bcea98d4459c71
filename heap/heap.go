// Package heap owns the contiguous byte arena that the allocator manages,
// together with the growth primitive that physically extends it.
//
// The arena is addressed by integer offsets, never by pointers, so a Source
// is free to move its backing storage as long as offsets stay stable. Growth
// is monotonic: the arena only ever gets longer, and bytes written at an
// offset remain visible at that offset for the lifetime of the heap.
package heap

// Source is the heap-growth primitive. Implementations must zero-fill newly
// extended bytes and must never relocate data as seen through offsets.
type Source interface {
	// Bytes returns the current arena contents. The slice is invalidated by
	// the next Extend call; callers re-fetch it rather than holding on.
	Bytes() []byte

	// Size returns the current arena length in bytes.
	Size() int64

	// Extend grows the arena by n bytes and returns the offset of the
	// previous end. Fails without side effects when the source cannot
	// satisfy the request.
	Extend(n int64) (int64, error)

	// Close releases the source's backing storage.
	Close() error
}

// Heap is the arena handle the allocator consumes, backed by a slice
// (portable) or an mmap reservation (linux).
type Heap struct {
	src Source
}

// New wraps a Source in a Heap.
func New(src Source) *Heap {
	return &Heap{src: src}
}

// Bytes returns the current arena contents.
func (h *Heap) Bytes() []byte { return h.src.Bytes() }

// Size returns the current arena length in bytes.
func (h *Heap) Size() int64 { return h.src.Size() }

// Extend grows the arena by n bytes and returns the previous end offset.
func (h *Heap) Extend(n int64) (int64, error) { return h.src.Extend(n) }

// Close releases the underlying source.
func (h *Heap) Close() error { return h.src.Close() }
