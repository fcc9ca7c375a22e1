package dmxcore

import "testing"

func TestSequenceCounterCycles(t *testing.T) {
	c := NewSequenceCounter(1, 3)
	got := make([]int, 0, 8)
	for i := 0; i < 8; i++ {
		got = append(got, c.Next())
	}
	want := []int{1, 2, 3, 1, 2, 3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestSequenceCounterZeroIsNoOp(t *testing.T) {
	c := NewSequenceCounter(0, 0)
	for i := 0; i < 5; i++ {
		if v := c.Next(); v != 0 {
			t.Fatalf("Next() = %d, want 0", v)
		}
	}
}

func TestSequenceCounterPanicsOnBadRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for start > upper")
		}
	}()
	NewSequenceCounter(5, 1)
}
