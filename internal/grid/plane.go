// Package grid holds the fixed-size buffers the simulations read and write:
// float32 field planes and an RGBA8 presentation surface.
package grid

import "fmt"

// Plane is a W×H grid of float32 cells in row-major order.
type Plane struct {
	W, H  int
	cells []float32
}

// NewPlane allocates a zeroed plane.
func NewPlane(w, h int) *Plane {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Plane{W: w, H: h, cells: make([]float32, w*h)}
}

// Cells exposes the backing slice so kernels can index it directly.
func (p *Plane) Cells() []float32 { return p.cells }

// Index returns the linear slice index for (x, y).
func (p *Plane) Index(x, y int) int { return y*p.W + x }

// InBounds reports whether (x, y) addresses a cell of the plane.
func (p *Plane) InBounds(x, y int) bool {
	return x >= 0 && x < p.W && y >= 0 && y < p.H
}

// At returns the value at (x, y). Coordinates outside the plane read as zero.
func (p *Plane) At(x, y int) float32 {
	if !p.InBounds(x, y) {
		return 0
	}
	return p.cells[p.Index(x, y)]
}

// Set writes v at (x, y). Writes outside the plane are dropped.
func (p *Plane) Set(x, y int, v float32) {
	if !p.InBounds(x, y) {
		return
	}
	p.cells[p.Index(x, y)] = v
}

// Zero clears every cell.
func (p *Plane) Zero() {
	clear(p.cells)
}

// Fields stores the three TE-mode field planes advanced by the FDTD stepper.
// All three share one size for their whole lifetime.
type Fields struct {
	W, H int
	Ez   *Plane
	Hx   *Plane
	Hy   *Plane
}

// NewFields allocates zeroed Ez, Hx and Hy planes of the given size.
func NewFields(w, h int) *Fields {
	ez := NewPlane(w, h)
	return &Fields{
		W:  ez.W,
		H:  ez.H,
		Ez: ez,
		Hx: NewPlane(ez.W, ez.H),
		Hy: NewPlane(ez.W, ez.H),
	}
}

// Zero clears all three planes.
func (f *Fields) Zero() {
	f.Ez.Zero()
	f.Hx.Zero()
	f.Hy.Zero()
}

// CopyFrom overwrites f with the contents of src. Both must have the same size.
func (f *Fields) CopyFrom(src *Fields) error {
	if src.W != f.W || src.H != f.H {
		return fmt.Errorf("copying fields: size %dx%d does not match %dx%d", src.W, src.H, f.W, f.H)
	}
	copy(f.Ez.cells, src.Ez.cells)
	copy(f.Hx.cells, src.Hx.cells)
	copy(f.Hy.cells, src.Hy.cells)
	return nil
}

// FieldSize returns the field grid dimensions for a canvas: twice the display
// resolution in each axis.
func FieldSize(canvasW, canvasH int) (int, int) {
	return canvasW * 2, canvasH * 2
}

// ClampCoord constrains v to lie within the inclusive [lo, hi] range.
func ClampCoord(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
