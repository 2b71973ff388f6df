// Package render selects which simulation produces each frame. One switch on
// the active mode dispatches to the wave optics pattern, the FDTD engine or
// the VoxelSpace raycaster.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"physviz/internal/fdtd"
	"physviz/internal/grid"
	"physviz/internal/optics"
	"physviz/internal/params"
	"physviz/internal/voxel"
)

// Options wires the renderer to its collaborators. Settings and Engine are
// required.
type Options struct {
	Settings *params.Settings
	Engine   *fdtd.Engine
	Grating  *optics.Grating
	Voxel    *voxel.Renderer
	Logger   *slog.Logger
}

// Renderer produces one frame per Frame call for the active mode.
type Renderer struct {
	settings *params.Settings
	engine   *fdtd.Engine
	grating  *optics.Grating
	voxel    *voxel.Renderer
	ctx      *Context
	log      *slog.Logger

	mu       sync.Mutex
	lastMode params.Mode
	paused   bool
	halted   bool
}

// New returns a renderer. It panics if Settings or Engine is missing.
func New(o Options) *Renderer {
	if o.Settings == nil || o.Engine == nil {
		panic("render: Settings and Engine are required")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Renderer{
		settings: o.Settings,
		engine:   o.Engine,
		grating:  o.Grating,
		voxel:    o.Voxel,
		ctx:      NewContext(),
		log:      o.Logger,
		lastMode: o.Settings.Mode(),
	}
}

// Context exposes frame statistics.
func (r *Renderer) Context() *Context { return r.ctx }

// SetMode switches the active mode. Entering FDTD from another mode clears
// the field on the next frame.
func (r *Renderer) SetMode(m params.Mode) {
	r.settings.SetMode(m)
}

// Mode returns the active mode.
func (r *Renderer) Mode() params.Mode { return r.settings.Mode() }

// IsUsingFdtd reports whether the FDTD engine drives the current frame.
func (r *Renderer) IsUsingFdtd() bool { return r.settings.Mode() == params.ModeFDTD }

// SetPaused stops or resumes FDTD stepping. The last image stays on screen.
func (r *Renderer) SetPaused(p bool) {
	r.mu.Lock()
	r.paused = p
	r.mu.Unlock()
}

// Paused reports whether FDTD stepping is paused.
func (r *Renderer) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Reset restarts the wave clock and clears the FDTD field.
func (r *Renderer) Reset() error {
	r.settings.ResetTime()
	if err := r.engine.Reset(); err != nil {
		return fmt.Errorf("resetting fdtd engine: %w", err)
	}
	return nil
}

// Frame renders the active mode. dt is the wall time since the last frame.
func (r *Renderer) Frame(ctx context.Context, dt time.Duration) error {
	r.ctx.Update(dt)
	mode := r.settings.Mode()

	r.mu.Lock()
	entering := mode == params.ModeFDTD && r.lastMode != params.ModeFDTD
	r.lastMode = mode
	paused := r.paused
	r.mu.Unlock()

	switch mode {
	case params.ModeWave:
		if r.grating == nil {
			return errors.New("render: wave mode has no grating")
		}
		r.settings.Advance(float32(dt.Seconds()))
		r.grating.Render(r.settings.Block(r.settings.Elapsed()))
		r.ctx.setFrame(mode, "wave-optics", r.grating.W, r.grating.H, "cpu")

	case params.ModeFDTD:
		pass := "fdtd-step"
		switch {
		case entering:
			r.engine.RequestReset()
			pass = "fdtd-reset"
		case paused:
			pass = "fdtd-paused"
		}
		w, h := r.engine.Size()
		r.ctx.setFrame(mode, pass, w, h, r.engine.DeviceName())
		if pass == "fdtd-paused" {
			return nil
		}
		if err := r.engine.Frame(ctx, r.settings.Block(r.engine.Elapsed())); err != nil {
			return r.fdtdError(err)
		}
		r.ctx.SetMetric("steps", fmt.Sprint(r.engine.Steps()))

	case params.ModeVoxelSpace:
		if r.voxel == nil {
			return errors.New("render: voxelspace mode has no terrain renderer")
		}
		cam := r.settings.Camera()
		r.voxel.Render(cam)
		r.ctx.setFrame(mode, "voxelspace", r.voxel.W, r.voxel.H, "cpu")
		r.ctx.SetMetric("camera", fmt.Sprintf("%.0f,%.0f h%.0f", cam.X, cam.Y, cam.Height))

	default:
		return fmt.Errorf("render: unknown mode %v", mode)
	}
	return nil
}

// fdtdError logs a halt once and passes the error on.
func (r *Renderer) fdtdError(err error) error {
	if errors.Is(err, fdtd.ErrHalted) {
		r.mu.Lock()
		first := !r.halted
		r.halted = true
		r.mu.Unlock()
		if first {
			r.log.Error("fdtd halted; showing last frame", "error", err)
		}
		return err
	}
	r.log.Warn("fdtd frame failed", "error", err)
	return err
}

// Surface returns the image of the active mode.
func (r *Renderer) Surface() *grid.Surface {
	switch r.settings.Mode() {
	case params.ModeWave:
		if r.grating != nil {
			return r.grating.Surface()
		}
	case params.ModeVoxelSpace:
		if r.voxel != nil {
			return r.voxel.Surface()
		}
	}
	return r.engine.Surface()
}

// Reinitialize retries the FDTD backend after a halt.
func (r *Renderer) Reinitialize() error {
	if err := r.engine.Reinitialize(); err != nil {
		return err
	}
	r.mu.Lock()
	r.halted = false
	r.mu.Unlock()
	return nil
}
