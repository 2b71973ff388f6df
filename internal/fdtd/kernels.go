package fdtd

import "physviz/internal/grid"

// The stencils below update the fields in place. That is safe because the H
// pass reads only Ez and writes only Hx/Hy, and the E pass reads Hx/Hy plus
// the cell's own Ez. No cell ever reads a value another cell of the same pass
// writes. A backend that cannot order whole passes (H fully retired before E
// starts) must keep two buffers per field and swap instead.
//
// Neighbours outside the grid contribute zero.

// updateH advances Hx and Hy over rows [y0, y1) from the discrete curl of Ez.
func updateH(f *grid.Fields, s float32, y0, y1 int) {
	w, h := f.W, f.H
	ez := f.Ez.Cells()
	hx := f.Hx.Cells()
	hy := f.Hy.Cells()
	for y := y0; y < y1; y++ {
		rowBase := y * w
		center := ez[rowBase : rowBase+w]
		var above []float32
		if y+1 < h {
			above = ez[rowBase+w : rowBase+2*w]
		}
		hxRow := hx[rowBase : rowBase+w]
		hyRow := hy[rowBase : rowBase+w]

		for x := 0; x < w; x++ {
			e := center[x]
			var up, right float32
			if above != nil {
				up = above[x]
			}
			if x+1 < w {
				right = center[x+1]
			}
			hxRow[x] -= s * (up - e)
			hyRow[x] += s * (right - e)
		}
	}
}

// updateE advances Ez over rows [y0, y1) from the discrete curl of Hx and Hy.
// It must run after updateH of the same step has finished on every row.
func updateE(f *grid.Fields, s float32, y0, y1 int) {
	w := f.W
	ez := f.Ez.Cells()
	hx := f.Hx.Cells()
	hy := f.Hy.Cells()
	for y := y0; y < y1; y++ {
		rowBase := y * w
		ezRow := ez[rowBase : rowBase+w]
		hxRow := hx[rowBase : rowBase+w]
		hyRow := hy[rowBase : rowBase+w]
		var below []float32
		if y > 0 {
			below = hx[rowBase-w : rowBase]
		}

		for x := 0; x < w; x++ {
			var left, down float32
			if x > 0 {
				left = hyRow[x-1]
			}
			if below != nil {
				down = below[x]
			}
			ezRow[x] += s * ((hyRow[x] - left) - (hxRow[x] - down))
		}
	}
}

// injectSource adds value to every source cell of Ez.
func injectSource(ez []float32, cells []int32, value float32) {
	for _, idx := range cells {
		ez[idx] += value
	}
}

// clearCells forces the listed cells to zero. Conducting barrier cells hold
// no tangential electric field.
func clearCells(buf []float32, cells []int32) {
	for _, idx := range cells {
		buf[idx] = 0
	}
}
