package alloc_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/verify"
)

func newAlloc(t *testing.T, cfg *alloc.Config) *alloc.Allocator {
	t.Helper()
	a, err := alloc.New(heap.New(heap.NewSliceSource(0)), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func Test_Malloc_AlignmentAndUsableSize(t *testing.T) {
	a := newAlloc(t, nil)

	for size := uint64(1); size <= 512; size += 19 {
		ref, p, err := a.Malloc(size)
		require.NoError(t, err)
		require.NotEqual(t, alloc.NilRef, ref)
		require.Zero(t, uint64(ref)%16, "ref %#x for size %d", ref, size)
		require.GreaterOrEqual(t, uint64(len(p)), size)

		got, err := a.PayloadSize(ref)
		require.NoError(t, err)
		require.EqualValues(t, len(p), got)

		require.NoError(t, verify.AllInvariants(a))
	}
}

func Test_Malloc_ZeroSize(t *testing.T) {
	a := newAlloc(t, nil)
	ref, p, err := a.Malloc(0)
	require.NoError(t, err)
	require.Equal(t, alloc.NilRef, ref)
	require.Nil(t, p)
}

func Test_Malloc_GrowOnDemand(t *testing.T) {
	a := newAlloc(t, nil)

	before := a.GetStats()
	_, _, err := a.Malloc(3 * alloc.DefaultChunkSize)
	require.NoError(t, err)
	after := a.GetStats()
	require.Equal(t, before.GrowCalls+1, after.GrowCalls)
	require.GreaterOrEqual(t, after.GrowBytes-before.GrowBytes, uint64(3*alloc.DefaultChunkSize))
	require.NoError(t, verify.AllInvariants(a))
}

func Test_Malloc_GrowFailureLeavesHeapIntact(t *testing.T) {
	// Room for the bootstrap chunk and nothing more.
	src := heap.NewSliceSource(16 + alloc.DefaultChunkSize)
	a, err := alloc.New(heap.New(src), nil)
	require.NoError(t, err)

	_, _, err = a.Malloc(2 * alloc.DefaultChunkSize)
	require.ErrorIs(t, err, alloc.ErrNoSpace)
	require.ErrorIs(t, err, alloc.ErrGrowFail)
	require.NoError(t, verify.AllInvariants(a))

	// Requests that fit the existing chunk still succeed.
	ref, _, err := a.Malloc(64)
	require.NoError(t, err)
	require.NotEqual(t, alloc.NilRef, ref)
}

func Test_New_GrowFailure(t *testing.T) {
	src := heap.NewSliceSource(8)
	_, err := alloc.New(heap.New(src), nil)
	require.ErrorIs(t, err, alloc.ErrGrowFail)
}

func Test_Calloc_ZeroFillsRecycledBlock(t *testing.T) {
	a := newAlloc(t, nil)

	ref, p, err := a.Malloc(64)
	require.NoError(t, err)
	for i := range p {
		p[i] = 0xFF
	}
	require.NoError(t, a.Free(ref))

	cref, cp, err := a.Calloc(8, 8)
	require.NoError(t, err)
	require.Equal(t, ref, cref, "expected the recycled block")
	for i, b := range cp {
		require.Zero(t, b, "byte %d", i)
	}
	require.NoError(t, verify.AllInvariants(a))
}

func Test_Calloc_Overflow(t *testing.T) {
	a := newAlloc(t, nil)
	_, _, err := a.Calloc(1<<33, 1<<33)
	require.ErrorIs(t, err, alloc.ErrSizeOverflow)

	ref, p, err := a.Calloc(0, 8)
	require.NoError(t, err)
	require.Equal(t, alloc.NilRef, ref)
	require.Nil(t, p)
}

func Test_Realloc_PreservesPrefix(t *testing.T) {
	a := newAlloc(t, nil)

	ref, p, err := a.Malloc(100)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		p[i] = byte(i % 251)
	}

	ref2, p2, err := a.Realloc(ref, 300)
	require.NoError(t, err)
	require.NotEqual(t, ref, ref2)
	for i := 0; i < 100; i++ {
		require.Equal(t, byte(i%251), p2[i], "byte %d", i)
	}
	require.NoError(t, verify.AllInvariants(a))

	ref3, p3, err := a.Realloc(ref2, 10)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.Equal(t, byte(i%251), p3[i], "byte %d", i)
	}
	require.NoError(t, verify.AllInvariants(a))

	require.NoError(t, a.Free(ref3))
}

func Test_Realloc_NullAndZeroSize(t *testing.T) {
	a := newAlloc(t, nil)

	ref, _, err := a.Realloc(alloc.NilRef, 32)
	require.NoError(t, err)
	require.NotEqual(t, alloc.NilRef, ref)

	ref2, p, err := a.Realloc(ref, 0)
	require.NoError(t, err)
	require.Equal(t, alloc.NilRef, ref2)
	require.Nil(t, p)
	require.NoError(t, verify.AllInvariants(a))
}

// Frees three adjacent blocks in interior-first order and checks that the
// merged region is handed back whole.
func Test_Free_CoalesceBothNeighbors(t *testing.T) {
	a := newAlloc(t, nil)

	refA, _, err := a.Malloc(24)
	require.NoError(t, err)
	refB, _, err := a.Malloc(24)
	require.NoError(t, err)
	refC, _, err := a.Malloc(24)
	require.NoError(t, err)
	_, _, err = a.Malloc(8) // keep the tail chunk out of the merge
	require.NoError(t, err)

	require.NoError(t, a.Free(refB))
	require.NoError(t, verify.AllInvariants(a))
	require.NoError(t, a.Free(refA))
	require.NoError(t, verify.AllInvariants(a))
	require.NoError(t, a.Free(refC))
	require.NoError(t, verify.AllInvariants(a))

	st := a.GetStats()
	require.EqualValues(t, 1, st.CoalesceForward)
	require.EqualValues(t, 1, st.CoalesceBackward)

	// The three 32-byte blocks merged into 96 bytes, reusable in one piece.
	ref, _, err := a.Malloc(88)
	require.NoError(t, err)
	require.Equal(t, refA, ref)
	require.NoError(t, verify.AllInvariants(a))
}

func Test_Free_NullAndBadRefs(t *testing.T) {
	a := newAlloc(t, nil)

	require.NoError(t, a.Free(alloc.NilRef))
	require.ErrorIs(t, a.Free(alloc.Ref(5)), alloc.ErrBadRef)
	require.ErrorIs(t, a.Free(alloc.Ref(1<<40)), alloc.ErrBadRef)
	require.ErrorIs(t, a.Free(alloc.Ref(8)), alloc.ErrBadRef)
}

func Test_Free_StrictDoubleFree(t *testing.T) {
	a := newAlloc(t, &alloc.Config{Strict: true})

	ref, _, err := a.Malloc(32)
	require.NoError(t, err)
	_, _, err = a.Malloc(8) // keep the freed block from merging away
	require.NoError(t, err)

	require.NoError(t, a.Free(ref))
	require.ErrorIs(t, a.Free(ref), alloc.ErrNotAllocated)

	_, _, err = a.Realloc(ref, 64)
	require.ErrorIs(t, err, alloc.ErrNotAllocated)
}

func Test_Malloc_SplitLeavesMinimumRemainder(t *testing.T) {
	a := newAlloc(t, nil)

	// Carve a free 32-byte block fenced by allocated neighbors.
	ref, _, err := a.Malloc(24)
	require.NoError(t, err)
	_, _, err = a.Malloc(8)
	require.NoError(t, err)
	require.NoError(t, a.Free(ref))

	// A 16-byte block fits with a 16-byte remainder, which must be split
	// off rather than wasted.
	small, _, err := a.Malloc(8)
	require.NoError(t, err)
	require.Equal(t, ref, small)
	got, err := a.PayloadSize(small)
	require.NoError(t, err)
	require.EqualValues(t, 8, got)
	require.NotEqual(t, uint64(0), a.BucketHead(0), "remainder should be a minimum block")
	require.NoError(t, verify.AllInvariants(a))
}

func Test_Malloc_ExactFitSkipsSplit(t *testing.T) {
	a := newAlloc(t, nil)

	ref, _, err := a.Malloc(24)
	require.NoError(t, err)
	_, _, err = a.Malloc(8)
	require.NoError(t, err)
	require.NoError(t, a.Free(ref))

	before := a.GetStats().SplitCount
	// 17..24 payload bytes all round to the same 32-byte block.
	got, p, err := a.Malloc(17)
	require.NoError(t, err)
	require.Equal(t, ref, got)
	require.Len(t, p, 24)
	require.Equal(t, before, a.GetStats().SplitCount)
	require.NoError(t, verify.AllInvariants(a))
}

func Test_Payload_Reresolve(t *testing.T) {
	a := newAlloc(t, nil)

	ref, p, err := a.Malloc(32)
	require.NoError(t, err)
	copy(p, []byte("stable across growth"))

	// Force growth, which may relocate the backing array.
	_, _, err = a.Malloc(8 * alloc.DefaultChunkSize)
	require.NoError(t, err)

	p2, err := a.Payload(ref)
	require.NoError(t, err)
	require.Equal(t, []byte("stable across growth"), p2[:20])
}

func Test_Stats_Accounting(t *testing.T) {
	a := newAlloc(t, nil)

	ref1, _, err := a.Malloc(100)
	require.NoError(t, err)
	ref2, _, err := a.Malloc(8)
	require.NoError(t, err)
	require.NoError(t, a.Free(ref1))
	require.NoError(t, a.Free(ref2))

	st := a.GetStats()
	require.EqualValues(t, 2, st.AllocCalls)
	require.EqualValues(t, 2, st.FreeCalls)
	require.EqualValues(t, 1, st.GrowCalls)
	require.EqualValues(t, alloc.DefaultChunkSize, st.GrowBytes)
	require.Equal(t, st.BytesAllocated, st.BytesFreed)
	require.NotZero(t, st.SplitCount)
}

// Seeded random workload validating every invariant after each operation,
// with payload tags checked so blocks never alias.
func Test_RandomOps_InvariantsHold(t *testing.T) {
	a := newAlloc(t, nil)
	rng := rand.New(rand.NewSource(0x5EED))

	type live struct {
		ref alloc.Ref
		tag byte
		n   uint64
	}
	var blocks []live
	checkTag := func(l live) {
		p, err := a.Payload(l.ref)
		require.NoError(t, err)
		require.GreaterOrEqual(t, uint64(len(p)), l.n)
		for i := uint64(0); i < l.n; i++ {
			require.Equal(t, l.tag, p[i], "ref %#x byte %d", l.ref, i)
		}
	}

	for op := 0; op < 2000; op++ {
		switch {
		case len(blocks) == 0 || rng.Intn(100) < 55:
			n := uint64(rng.Intn(256) + 1)
			tag := byte(rng.Intn(255) + 1)
			ref, p, err := a.Malloc(n)
			require.NoError(t, err)
			for i := uint64(0); i < n; i++ {
				p[i] = tag
			}
			blocks = append(blocks, live{ref: ref, tag: tag, n: n})

		case rng.Intn(100) < 20:
			i := rng.Intn(len(blocks))
			l := blocks[i]
			checkTag(l)
			n := uint64(rng.Intn(256) + 1)
			ref, p, err := a.Realloc(l.ref, n)
			require.NoError(t, err)
			keep := min(n, l.n)
			for j := uint64(0); j < keep; j++ {
				require.Equal(t, l.tag, p[j])
			}
			for j := uint64(0); j < n; j++ {
				p[j] = l.tag
			}
			blocks[i] = live{ref: ref, tag: l.tag, n: n}

		default:
			i := rng.Intn(len(blocks))
			l := blocks[i]
			checkTag(l)
			require.NoError(t, a.Free(l.ref))
			blocks[i] = blocks[len(blocks)-1]
			blocks = blocks[:len(blocks)-1]
		}

		require.NoError(t, verify.AllInvariants(a), "op %d", op)
	}

	for _, l := range blocks {
		checkTag(l)
		require.NoError(t, a.Free(l.ref))
	}
	require.NoError(t, verify.AllInvariants(a))
}
