package fdtd

import (
	"math"

	"physviz/internal/params"
)

// BarrierConfig describes the optional conducting grating wall.
type BarrierConfig struct {
	Enabled bool
	// X is the wall column as a fraction of the grid width.
	X float64
	// Thickness is the wall depth in cells.
	Thickness int
}

// BarrierCells returns the Ez cells the grating holds at zero. The wall spans
// the full column height with SlitCount openings spread across the grating
// width. The grid height covers ScreenSize millimetres, which sets the scale
// of slit and grating widths. Cells listed in keepOut (the source footprint)
// are never walled.
func BarrierCells(w, h int, cfg BarrierConfig, block params.Block, keepOut []int32) []int32 {
	if !cfg.Enabled || w <= 0 || h <= 0 {
		return nil
	}
	thickness := cfg.Thickness
	if thickness < 1 {
		thickness = 1
	}
	x0 := int(math.Round(cfg.X * float64(w)))
	if x0 < 0 || x0 >= w {
		return nil
	}
	x1 := min(x0+thickness, w)

	open := slitRows(h, block)
	skip := make(map[int32]struct{}, len(keepOut))
	for _, idx := range keepOut {
		skip[idx] = struct{}{}
	}

	cells := make([]int32, 0, (x1-x0)*h)
	for y := 0; y < h; y++ {
		if open[y] {
			continue
		}
		for x := x0; x < x1; x++ {
			idx := int32(y*w + x)
			if _, ok := skip[idx]; ok {
				continue
			}
			cells = append(cells, idx)
		}
	}
	return cells
}

// slitRows marks the rows left open by the grating slits.
func slitRows(h int, block params.Block) []bool {
	open := make([]bool, h)
	n := block.Slits()
	screen := float64(block.ScreenSize)
	if n == 0 || screen <= 0 {
		return open
	}
	cellsPerMM := float64(h) / screen
	slit := max(1, int(math.Round(float64(block.SlitWidth)*cellsPerMM)))
	span := float64(block.GrateWidth) * cellsPerMM
	mid := float64(h) / 2

	for k := 0; k < n; k++ {
		center := mid
		if n > 1 {
			center = mid - span/2 + float64(k)*span/float64(n-1)
		}
		lo := int(math.Round(center - float64(slit)/2))
		for y := lo; y < lo+slit; y++ {
			if y >= 0 && y < h {
				open[y] = true
			}
		}
	}
	return open
}
