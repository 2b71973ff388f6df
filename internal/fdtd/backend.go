package fdtd

import (
	"fmt"
	"strings"

	"physviz/internal/grid"
)

// Setup is everything a backend needs to allocate its buffers.
type Setup struct {
	Width, Height int
	Courant       float32
	Gain          float32
	Workers       int
	// SourceCells are the Ez indices the source drives.
	SourceCells []int32
	Palette     *Palette
}

// Backend runs the FDTD passes on one compute device. Calls are issued by a
// single goroutine (the Engine) and each pass has finished on every cell
// before the call returns.
type Backend interface {
	Name() string
	// UpdateH runs the magnetic pass of one step.
	UpdateH() error
	// UpdateE runs the electric pass of one step, then adds source to the
	// source cells and zeroes the barrier cells.
	UpdateE(source float32) error
	// Visualize maps Ez to colours in the backend's surface buffer.
	Visualize() error
	// Clear zeroes every field cell and sets the surface to ResetColor.
	Clear() error
	// Present makes the latest surface readable through Surface.
	Present() error
	Surface() *grid.Surface
	// ReadFields copies the current field state into dst.
	ReadFields(dst *grid.Fields) error
	// SetBarrier replaces the set of barrier cells.
	SetBarrier(cells []int32) error
	Close()
}

// Factory creates a backend. The Engine calls it again to recover from a
// lost device.
type Factory func(Setup) (Backend, error)

// FactoryFor resolves a backend name from configuration.
func FactoryFor(name string) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cpu":
		return NewCPUBackend, nil
	case "opencl", "gpu":
		return NewOpenCLBackend, nil
	case "auto":
		return autoFactory, nil
	default:
		return nil, fmt.Errorf("unknown compute backend %q", name)
	}
}

// autoFactory prefers OpenCL and falls back to the CPU.
func autoFactory(s Setup) (Backend, error) {
	if b, err := NewOpenCLBackend(s); err == nil {
		return b, nil
	}
	return NewCPUBackend(s)
}
