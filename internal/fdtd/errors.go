package fdtd

import "errors"

var (
	// ErrInit reports that no compute backend could be created.
	ErrInit = errors.New("fdtd: compute backend initialization failed")

	// ErrDeviceLost reports a backend failure during a frame. The engine has
	// re-initialized once and dropped the field state.
	ErrDeviceLost = errors.New("fdtd: compute device lost")

	// ErrHalted is returned for every frame after an unrecoverable backend
	// failure, until Reinitialize succeeds.
	ErrHalted = errors.New("fdtd: engine halted")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("fdtd: engine closed")
)
