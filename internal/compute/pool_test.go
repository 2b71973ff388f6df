package compute

import (
	"sync/atomic"
	"testing"
)

func TestSplitCoversRangeOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8, 64} {
		for _, n := range []int{0, 1, 15, 16, 17, 100, 1023} {
			hits := make([]int32, n)
			NewPool(workers).Split(n, func(lo, hi int) {
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("workers=%d n=%d: index %d visited %d times", workers, n, i, h)
				}
			}
		}
	}
}

func TestDispatchVisitsEveryCell(t *testing.T) {
	const w, h = 37, 29
	var count atomic.Int64
	seen := make([]int32, w*h)
	NewPool(4).Dispatch(w, h, func(x, y int) {
		atomic.AddInt32(&seen[y*w+x], 1)
		count.Add(1)
	})
	if count.Load() != w*h {
		t.Fatalf("dispatched %d cells, want %d", count.Load(), w*h)
	}
	for i, s := range seen {
		if s != 1 {
			t.Fatalf("cell %d visited %d times", i, s)
		}
	}
}

func TestNewPoolDefaultsToGOMAXPROCS(t *testing.T) {
	if NewPool(0).Workers() < 1 {
		t.Fatal("default pool must have at least one worker")
	}
}
