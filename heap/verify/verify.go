// Package verify provides validation functions for allocator heap structures.
// These helpers are used in tests to ensure heap invariants are maintained.
package verify

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

// Error types for different validation failures.
type ValidationError struct {
	Type    string
	Message string
	Offset  int64
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates all heap invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(a *alloc.Allocator) error {
	if err := Sentinels(a); err != nil {
		return err
	}
	if err := AddressOrder(a); err != nil {
		return err
	}
	if err := FreeLists(a); err != nil {
		return err
	}
	return CrossCheck(a)
}

// Sentinels validates the prologue and epilogue boundary words.
func Sentinels(a *alloc.Allocator) error {
	b := a.Bytes()
	if a.End() <= a.Start() || uint64(len(b)) < a.End()+format.WordSize {
		return &ValidationError{
			Type:    "Sentinels",
			Message: fmt.Sprintf("arena too small: %d bytes", len(b)),
			Offset:  -1,
		}
	}
	pro := format.ReadHeader(b, 0)
	if !format.IsAllocated(pro) || format.SizeOf(pro) != 0 {
		return &ValidationError{
			Type:    "Sentinels",
			Message: fmt.Sprintf("bad prologue word 0x%X", pro),
			Offset:  0,
		}
	}
	epi := format.ReadHeader(b, a.End())
	if !format.IsAllocated(epi) || format.SizeOf(epi) != 0 {
		return &ValidationError{
			Type:    "Sentinels",
			Message: fmt.Sprintf("bad epilogue word 0x%X", epi),
			Offset:  int64(a.End()),
		}
	}
	return nil
}

// AddressOrder walks every block from the first header to the epilogue and
// validates per-block shape, footer mirroring, prev-allocated tracking, and
// that no two free blocks are adjacent.
func AddressOrder(a *alloc.Allocator) error {
	b := a.Bytes()
	end := a.End()
	maxBlocks := (end - a.Start()) / format.MinBlockSize

	prevAllocated := true
	var steps uint64
	off := a.Start()
	for off < end {
		if steps++; steps > maxBlocks {
			return &ValidationError{
				Type:    "AddressOrder",
				Message: "block walk did not terminate",
				Offset:  int64(off),
			}
		}
		w := format.ReadHeader(b, off)
		size := format.SizeOf(w)
		if size < format.MinBlockSize || size%format.Alignment != 0 {
			return &ValidationError{
				Type:    "AddressOrder",
				Message: fmt.Sprintf("bad block size %d", size),
				Offset:  int64(off),
			}
		}
		if !format.IsAligned(format.PayloadOff(off)) {
			return &ValidationError{
				Type:    "AddressOrder",
				Message: "misaligned payload",
				Offset:  int64(off),
			}
		}
		if off+size > end {
			return &ValidationError{
				Type:    "AddressOrder",
				Message: fmt.Sprintf("block of size %d overruns heap end 0x%X", size, end),
				Offset:  int64(off),
			}
		}
		if format.IsMini(w) != (size == format.MinBlockSize) {
			return &ValidationError{
				Type:    "AddressOrder",
				Message: fmt.Sprintf("mini flag inconsistent with size %d", size),
				Offset:  int64(off),
			}
		}
		if format.IsMini(w) && format.IsAllocated(w) && w&^uint64(0xF) != format.MinBlockSize {
			return &ValidationError{
				Type:    "AddressOrder",
				Message: fmt.Sprintf("allocated minimum block with size bits 0x%X", w&^uint64(0xF)),
				Offset:  int64(off),
			}
		}
		if format.IsPrevAllocated(w) != prevAllocated {
			return &ValidationError{
				Type:    "AddressOrder",
				Message: "prev-allocated bit does not match predecessor",
				Offset:  int64(off),
			}
		}
		if !format.IsAllocated(w) {
			if !prevAllocated {
				return &ValidationError{
					Type:    "AddressOrder",
					Message: "adjacent free blocks",
					Offset:  int64(off),
				}
			}
			if !format.IsMini(w) && format.ReadFooter(b, off) != w {
				return &ValidationError{
					Type:    "AddressOrder",
					Message: "footer does not mirror header",
					Offset:  int64(off),
					Details: map[string]interface{}{
						"header": w,
						"footer": format.ReadFooter(b, off),
					},
				}
			}
		}
		prevAllocated = format.IsAllocated(w)
		off += size
	}
	if off != end {
		return &ValidationError{
			Type:    "AddressOrder",
			Message: fmt.Sprintf("walk ended at 0x%X, expected epilogue at 0x%X", off, end),
			Offset:  int64(off),
		}
	}
	if format.IsPrevAllocated(format.ReadHeader(b, end)) != prevAllocated {
		return &ValidationError{
			Type:    "AddressOrder",
			Message: "epilogue prev-allocated bit does not match last block",
			Offset:  int64(end),
		}
	}
	return nil
}

// FreeLists walks every bucket and validates link consistency, free status,
// and bucket membership of each listed block.
func FreeLists(a *alloc.Allocator) error {
	b := a.Bytes()
	end := a.End()
	maxBlocks := (end - a.Start()) / format.MinBlockSize

	for i := 0; i < alloc.NumBuckets; i++ {
		prev := format.NilOff
		var steps uint64
		for off := a.BucketHead(i); off != format.NilOff; off = format.NextFree(b, off) {
			if steps++; steps > maxBlocks {
				return &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("bucket %d list did not terminate", i),
					Offset:  int64(off),
				}
			}
			if off < a.Start() || off >= end {
				return &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("bucket %d link out of bounds", i),
					Offset:  int64(off),
				}
			}
			w := format.ReadHeader(b, off)
			if format.IsAllocated(w) {
				return &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("allocated block on bucket %d", i),
					Offset:  int64(off),
				}
			}
			if alloc.BucketOf(format.SizeOf(w)) != i {
				return &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("block of size %d on bucket %d", format.SizeOf(w), i),
					Offset:  int64(off),
				}
			}
			if format.PrevFree(b, off) != prev {
				return &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("backward link 0x%X, expected 0x%X", format.PrevFree(b, off), prev),
					Offset:  int64(off),
				}
			}
			prev = off
		}
	}
	return nil
}

// CrossCheck verifies that the address-order walk and the bucket walks agree
// on the number of free blocks and their total byte size.
func CrossCheck(a *alloc.Allocator) error {
	b := a.Bytes()
	end := a.End()

	var walkCount, walkBytes uint64
	for off := a.Start(); off < end; off = format.NextOff(b, off) {
		w := format.ReadHeader(b, off)
		if !format.IsAllocated(w) {
			walkCount++
			walkBytes += format.SizeOf(w)
		}
	}

	var listCount, listBytes uint64
	for i := 0; i < alloc.NumBuckets; i++ {
		for off := a.BucketHead(i); off != format.NilOff; off = format.NextFree(b, off) {
			listCount++
			listBytes += format.SizeOf(format.ReadHeader(b, off))
		}
	}

	if walkCount != listCount || walkBytes != listBytes {
		return &ValidationError{
			Type:    "CrossCheck",
			Message: "free-block accounting mismatch between heap walk and free lists",
			Offset:  -1,
			Details: map[string]interface{}{
				"walkCount": walkCount,
				"walkBytes": walkBytes,
				"listCount": listCount,
				"listBytes": listBytes,
			},
		}
	}
	return nil
}
