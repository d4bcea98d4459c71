package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if sum, ok := AddOverflowSafe(math.MaxUint64, 0); !ok || sum != math.MaxUint64 {
		t.Fatalf("AddOverflowSafe(MaxUint64,0)=%d,%v want MaxUint64,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxUint64, 1); ok {
		t.Fatalf("expected overflow when adding to MaxUint64")
	}
}

func TestMulOverflowSafe(t *testing.T) {
	if r, ok := MulOverflowSafe(7, 6); !ok || r != 42 {
		t.Fatalf("MulOverflowSafe(7,6)=%d,%v want 42,true", r, ok)
	}
	if r, ok := MulOverflowSafe(0, math.MaxUint64); !ok || r != 0 {
		t.Fatalf("MulOverflowSafe(0,MaxUint64)=%d,%v want 0,true", r, ok)
	}
	if r, ok := MulOverflowSafe(math.MaxUint64, 0); !ok || r != 0 {
		t.Fatalf("MulOverflowSafe(MaxUint64,0)=%d,%v want 0,true", r, ok)
	}
	if _, ok := MulOverflowSafe(math.MaxUint64, 2); ok {
		t.Fatalf("expected overflow for MaxUint64*2")
	}
	if _, ok := MulOverflowSafe(1<<33, 1<<33); ok {
		t.Fatalf("expected overflow for 2^33*2^33")
	}
	if r, ok := MulOverflowSafe(1<<32, 1<<31); !ok || r != 1<<63 {
		t.Fatalf("MulOverflowSafe(2^32,2^31)=%d,%v want 2^63,true", r, ok)
	}
}
