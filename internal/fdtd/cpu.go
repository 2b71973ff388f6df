package fdtd

import (
	"fmt"

	"physviz/internal/compute"
	"physviz/internal/grid"
)

type cpuBackend struct {
	fields  *grid.Fields
	surface *grid.Surface
	palette *Palette
	pool    *compute.Pool
	courant float32
	gain    float32
	source  []int32
	walls   []int32
}

// NewCPUBackend runs the passes on host memory, split across worker
// goroutines by row band.
func NewCPUBackend(s Setup) (Backend, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("cpu backend: invalid grid size %dx%d", s.Width, s.Height)
	}
	if err := checkCells(s.SourceCells, s.Width*s.Height); err != nil {
		return nil, fmt.Errorf("cpu backend: source: %w", err)
	}
	pal := s.Palette
	if pal == nil {
		pal = NewPalette()
	}
	b := &cpuBackend{
		fields:  grid.NewFields(s.Width, s.Height),
		surface: grid.NewSurface(s.Width, s.Height),
		palette: pal,
		pool:    compute.NewPool(s.Workers),
		courant: s.Courant,
		gain:    s.Gain,
		source:  append([]int32(nil), s.SourceCells...),
	}
	b.surface.Fill(ResetColor)
	return b, nil
}

func (b *cpuBackend) Name() string { return fmt.Sprintf("cpu (%d workers)", b.pool.Workers()) }

func (b *cpuBackend) UpdateH() error {
	b.pool.Split(b.fields.H, func(y0, y1 int) {
		updateH(b.fields, b.courant, y0, y1)
	})
	return nil
}

func (b *cpuBackend) UpdateE(source float32) error {
	b.pool.Split(b.fields.H, func(y0, y1 int) {
		updateE(b.fields, b.courant, y0, y1)
	})
	ez := b.fields.Ez.Cells()
	injectSource(ez, b.source, source)
	clearCells(ez, b.walls)
	return nil
}

func (b *cpuBackend) Visualize() error {
	b.pool.Split(b.fields.H, func(y0, y1 int) {
		b.palette.paintRows(b.fields.Ez, b.surface, b.gain, y0, y1)
	})
	return nil
}

func (b *cpuBackend) Clear() error {
	b.fields.Zero()
	b.surface.Fill(ResetColor)
	return nil
}

// Present is a no-op: the surface already lives in host memory.
func (b *cpuBackend) Present() error { return nil }

func (b *cpuBackend) Surface() *grid.Surface { return b.surface }

func (b *cpuBackend) ReadFields(dst *grid.Fields) error {
	return dst.CopyFrom(b.fields)
}

func (b *cpuBackend) SetBarrier(cells []int32) error {
	if err := checkCells(cells, b.fields.W*b.fields.H); err != nil {
		return fmt.Errorf("cpu backend: barrier: %w", err)
	}
	b.walls = append(b.walls[:0], cells...)
	clearCells(b.fields.Ez.Cells(), b.walls)
	return nil
}

func (b *cpuBackend) Close() {}

func checkCells(cells []int32, size int) error {
	for _, idx := range cells {
		if idx < 0 || int(idx) >= size {
			return fmt.Errorf("cell index %d outside grid of %d cells", idx, size)
		}
	}
	return nil
}
