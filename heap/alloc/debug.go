package alloc

import (
	"log"
	"os"

	"github.com/joshuapare/heapkit/internal/format"
)

// logAlloc enables allocator debug logging when HEAPKIT_LOG_ALLOC is set.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

func debugLogf(f string, args ...any) {
	if logAlloc {
		log.Printf("[alloc] "+f, args...)
	}
}

// dumpState logs an address-order walk of the heap. No-op unless debug
// logging is enabled.
func (a *Allocator) dumpState() {
	if !logAlloc {
		return
	}
	b := a.h.Bytes()
	end := a.End()
	log.Printf("[alloc] heap start=%#x end=%#x", a.start, end)
	for off := a.start; off < end; off = format.NextOff(b, off) {
		w := format.ReadHeader(b, off)
		log.Printf("[alloc]   block off=%#x size=%d alloc=%t prev=%t mini=%t",
			off, format.SizeOf(w), format.IsAllocated(w),
			format.IsPrevAllocated(w), format.IsMini(w))
	}
}
