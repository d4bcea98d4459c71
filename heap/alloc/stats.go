package alloc

// Stats holds cumulative allocator counters. Byte counts include block
// headers, not just payloads.
type Stats struct {
	AllocCalls uint64
	FreeCalls  uint64

	GrowCalls uint64
	GrowBytes uint64

	BytesAllocated uint64
	BytesFreed     uint64

	SplitCount       uint64
	CoalesceForward  uint64
	CoalesceBackward uint64
	CoalesceBoth     uint64

	// FitScans counts free blocks examined during fit searches.
	FitScans uint64
}

// GetStats returns a snapshot of the allocator's counters.
func (a *Allocator) GetStats() Stats {
	return a.stats
}
