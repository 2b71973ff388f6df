package fdtd

import (
	"math"

	"physviz/internal/grid"
)

// SourceConfig places the driven point source on the field grid.
type SourceConfig struct {
	// X and Y are fractions of the grid width and height.
	X, Y float64
	// Radius is the disc footprint radius in cells. Zero drives one cell.
	Radius int
	// Amplitude scales the sinusoid added to Ez each step.
	Amplitude float32
}

type gridOffset struct {
	dx int
	dy int
}

func discFootprint(radius int) []gridOffset {
	if radius < 0 {
		radius = 0
	}
	footprint := make([]gridOffset, 0, (2*radius+1)*(2*radius+1))
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= r2 {
				footprint = append(footprint, gridOffset{dx: x, dy: y})
			}
		}
	}
	return footprint
}

// SourceCenter resolves the configured source position to a cell.
func SourceCenter(w, h int, cfg SourceConfig) (int, int) {
	x := int(math.Round(cfg.X * float64(w)))
	y := int(math.Round(cfg.Y * float64(h)))
	return grid.ClampCoord(x, 0, w-1), grid.ClampCoord(y, 0, h-1)
}

// SourceCells returns the linear indices covered by the source footprint.
// Footprint cells that fall outside the grid are dropped.
func SourceCells(w, h int, cfg SourceConfig) []int32 {
	cx, cy := SourceCenter(w, h, cfg)
	fp := discFootprint(cfg.Radius)
	cells := make([]int32, 0, len(fp))
	for _, off := range fp {
		x, y := cx+off.dx, cy+off.dy
		if x < 0 || x >= w || y < 0 || y >= h {
			continue
		}
		cells = append(cells, int32(y*w+x))
	}
	return cells
}

// SourceFrequency converts a wavelength in nanometres into the source
// frequency in the normalized time units of the stepper. The wave advances
// courant cells per time unit dt, so a wavelength of L cells repeats every
// L/courant steps.
func SourceFrequency(wavelengthNM, nmPerCell, courant, dt float32) float32 {
	if wavelengthNM <= 0 || nmPerCell <= 0 || dt <= 0 {
		return 0
	}
	cells := wavelengthNM / nmPerCell
	return courant / (cells * dt)
}

// SourceAmplitude is the unit sinusoid driving the source at time t.
func SourceAmplitude(freq, t float32) float32 {
	return float32(math.Sin(2 * math.Pi * float64(freq) * float64(t)))
}
