// Package compute provides the CPU dispatch capability used by the kernels:
// a data-parallel split of an index range across worker goroutines.
package compute

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// serialThreshold is the smallest range worth splitting. Below it the
// goroutine handoff costs more than the work.
const serialThreshold = 16

// Pool splits a range of rows (or columns) into contiguous bands and runs one
// band per worker. Cells inside a band see no ordering guarantee relative to
// other bands; Split returns only after every band has finished.
type Pool struct {
	workers int
}

// NewPool returns a pool with the given worker count. Zero or less uses
// GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers reports how many bands a large range is split into.
func (p *Pool) Workers() int { return p.workers }

// Split calls fn(lo, hi) for disjoint half-open bands covering [0, n) and
// waits for all of them.
func (p *Pool) Split(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if p.workers <= 1 || n < serialThreshold {
		fn(0, n)
		return
	}
	bands := p.workers
	if bands > n {
		bands = n
	}
	per := (n + bands - 1) / bands
	var g errgroup.Group
	for lo := 0; lo < n; lo += per {
		hi := lo + per
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// Dispatch runs kernel once per cell of a w×h domain, banded by row.
func (p *Pool) Dispatch(w, h int, kernel func(x, y int)) {
	p.Split(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				kernel(x, y)
			}
		}
	})
}
