// Package fdtd advances a 2D transverse-electric Yee grid (Ez, Hx, Hy) and
// turns Ez into an image. The Engine owns the field state and sequences the
// passes on a Backend: H then E for every sub-step, then one visualize.
package fdtd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"physviz/internal/grid"
	"physviz/internal/params"
)

// State is the orchestrator's position in a frame.
type State int

const (
	StateIdle State = iota
	StateStepping
	StateResetting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStepping:
		return "stepping"
	case StateResetting:
		return "resetting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Observer receives a host copy of the fields after every stepping frame.
// The fields are only valid for the duration of the call.
type Observer interface {
	Observe(step int64, elapsed float32, f *grid.Fields)
}

// Options configures an Engine. Zero values take the defaults noted.
type Options struct {
	Width, Height int

	Courant       float32 // default 0.5
	TimeStep      float32 // seconds per step, default 0.01
	NMPerCell     float32 // nanometres per cell, default 50
	StepsPerFrame int     // default 1
	Gain          float32 // visualizer gain, default 1
	Workers       int

	Source  SourceConfig // Source.Amplitude defaults to 1
	Barrier BarrierConfig

	Logger   *slog.Logger
	Observer Observer
	// OnTransition, when set, is called on every state change.
	OnTransition func(from, to State)
}

func (o *Options) applyDefaults() {
	if o.Courant == 0 {
		o.Courant = 0.5
	}
	if o.TimeStep == 0 {
		o.TimeStep = 0.01
	}
	if o.NMPerCell == 0 {
		o.NMPerCell = 50
	}
	if o.StepsPerFrame <= 0 {
		o.StepsPerFrame = 1
	}
	if o.Gain == 0 {
		o.Gain = 1
	}
	if o.Source.Amplitude == 0 {
		o.Source.Amplitude = 1
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Engine is the dispatch orchestrator. All methods are safe for concurrent
// use; a reset never interleaves with a step.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	factory Factory
	setup   Setup
	backend Backend
	log     *slog.Logger

	state        State
	steps        int64
	resetPending bool
	reinitUsed   bool
	halted       error

	barrierGeom params.Block
	barrierSet  bool

	presented *grid.Surface
	host      *grid.Fields
}

// New creates the backend and returns an engine with zeroed fields. Any
// factory failure is reported as ErrInit.
func New(opts Options, factory Factory) (*Engine, error) {
	opts.applyDefaults()
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid grid size %dx%d", ErrInit, opts.Width, opts.Height)
	}
	if factory == nil {
		factory = NewCPUBackend
	}
	e := &Engine{
		opts:    opts,
		factory: factory,
		log:     opts.Logger,
		setup: Setup{
			Width:       opts.Width,
			Height:      opts.Height,
			Courant:     opts.Courant,
			Gain:        opts.Gain,
			Workers:     opts.Workers,
			SourceCells: SourceCells(opts.Width, opts.Height, opts.Source),
			Palette:     NewPalette(),
		},
	}
	b, err := factory(e.setup)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}
	e.backend = b
	e.presented = b.Surface()
	e.log.Info("fdtd engine ready",
		"backend", b.Name(),
		"width", opts.Width,
		"height", opts.Height,
		"courant", opts.Courant,
		"stepsPerFrame", opts.StepsPerFrame)
	return e, nil
}

// Frame runs one frame: a pending reset if one was requested, otherwise
// StepsPerFrame sub-steps followed by a visualize. The context is consulted
// only before the frame starts.
func (e *Engine) Frame(ctx context.Context, block params.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return err
	}
	if e.resetPending {
		e.resetPending = false
		return e.guard(true, e.clearLocked)
	}
	return e.guard(false, func() error { return e.stepLocked(block) })
}

// Step runs one frame's worth of sub-steps and a visualize, ignoring any
// pending reset request.
func (e *Engine) Step(ctx context.Context, block params.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return err
	}
	return e.guard(false, func() error { return e.stepLocked(block) })
}

// Reset zeroes the fields and clock and fills the surface with ResetColor.
// Resetting twice is the same as resetting once.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return err
	}
	e.resetPending = false
	return e.guard(true, e.clearLocked)
}

// RequestReset defers a reset to the start of the next Frame.
func (e *Engine) RequestReset() {
	e.mu.Lock()
	e.resetPending = true
	e.mu.Unlock()
}

// Reinitialize replaces the backend with a fresh one and clears the halt.
func (e *Engine) Reinitialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend != nil {
		e.backend.Close()
		e.backend = nil
	}
	b, err := e.factory(e.setup)
	if err != nil {
		e.halted = err
		return fmt.Errorf("%w: %w", ErrInit, err)
	}
	e.install(b)
	e.halted = nil
	e.reinitUsed = false
	e.log.Info("fdtd engine re-initialized", "backend", b.Name())
	return nil
}

// Surface returns the last presented image. It stays valid after a halt.
func (e *Engine) Surface() *grid.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.presented
}

// ReadFields copies the current field state into dst.
func (e *Engine) ReadFields(dst *grid.Fields) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usableLocked(); err != nil {
		return err
	}
	return e.backend.ReadFields(dst)
}

// Steps returns the number of sub-steps since the last reset.
func (e *Engine) Steps() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steps
}

// Elapsed returns the simulation time since the last reset.
func (e *Engine) Elapsed() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeAt(e.steps)
}

// State reports the current orchestrator state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Halted reports whether the engine stopped after an unrecoverable failure.
func (e *Engine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted != nil
}

// DeviceName names the active backend.
func (e *Engine) DeviceName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return "halted"
	}
	return e.backend.Name()
}

// Size returns the field grid dimensions.
func (e *Engine) Size() (int, int) { return e.opts.Width, e.opts.Height }

// StepsPerFrame returns the number of sub-steps each Frame runs.
func (e *Engine) StepsPerFrame() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts.StepsPerFrame
}

// SetStepsPerFrame changes the sub-step count, clamped to at least one.
func (e *Engine) SetStepsPerFrame(n int) {
	if n < 1 {
		n = 1
	}
	e.mu.Lock()
	e.opts.StepsPerFrame = n
	e.mu.Unlock()
}

// Close releases the backend.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend != nil {
		e.backend.Close()
		e.backend = nil
	}
}

func (e *Engine) usableLocked() error {
	if e.halted != nil {
		return fmt.Errorf("%w: %w", ErrHalted, e.halted)
	}
	if e.backend == nil {
		return ErrClosed
	}
	return nil
}

func (e *Engine) timeAt(step int64) float32 {
	return float32(step) * e.opts.TimeStep
}

func (e *Engine) transition(to State) {
	from := e.state
	e.state = to
	if e.opts.OnTransition != nil && from != to {
		e.opts.OnTransition(from, to)
	}
}

func (e *Engine) install(b Backend) {
	e.backend = b
	e.steps = 0
	e.barrierSet = false
	e.state = StateIdle
}

func (e *Engine) stepLocked(block params.Block) error {
	e.transition(StateStepping)
	defer e.transition(StateIdle)

	block.ElapsedTime = e.timeAt(e.steps)
	if err := e.syncBarrier(block); err != nil {
		return err
	}
	freq := SourceFrequency(block.Wavelength, e.opts.NMPerCell, e.opts.Courant, e.opts.TimeStep)
	for i := 0; i < e.opts.StepsPerFrame; i++ {
		if err := e.backend.UpdateH(); err != nil {
			return fmt.Errorf("H pass: %w", err)
		}
		t := e.timeAt(e.steps + 1)
		if err := e.backend.UpdateE(e.opts.Source.Amplitude * SourceAmplitude(freq, t)); err != nil {
			return fmt.Errorf("E pass: %w", err)
		}
		e.steps++
	}
	if err := e.backend.Visualize(); err != nil {
		return fmt.Errorf("visualize: %w", err)
	}
	if err := e.present(); err != nil {
		return err
	}
	if e.opts.Observer != nil {
		if e.host == nil {
			e.host = grid.NewFields(e.opts.Width, e.opts.Height)
		}
		if err := e.backend.ReadFields(e.host); err != nil {
			return fmt.Errorf("field readback: %w", err)
		}
		e.opts.Observer.Observe(e.steps, e.timeAt(e.steps), e.host)
	}
	return nil
}

func (e *Engine) clearLocked() error {
	e.transition(StateResetting)
	defer e.transition(StateIdle)

	if err := e.backend.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	e.steps = 0
	if err := e.present(); err != nil {
		return err
	}
	e.log.Debug("fdtd fields reset")
	return nil
}

func (e *Engine) present() error {
	if err := e.backend.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	e.presented = e.backend.Surface()
	return nil
}

// syncBarrier rebuilds the barrier mask when the grating geometry changed.
func (e *Engine) syncBarrier(block params.Block) error {
	if !e.opts.Barrier.Enabled {
		return nil
	}
	if e.barrierSet && e.barrierGeom.SameGeometry(block) {
		return nil
	}
	cells := BarrierCells(e.opts.Width, e.opts.Height, e.opts.Barrier, block, e.setup.SourceCells)
	if err := e.backend.SetBarrier(cells); err != nil {
		return fmt.Errorf("barrier: %w", err)
	}
	e.barrierGeom = block
	e.barrierSet = true
	e.log.Debug("fdtd barrier rebuilt", "cells", len(cells), "slits", block.Slits())
	return nil
}

// guard runs fn and handles a backend failure. The first failure triggers one
// re-initialization with zeroed state. A second failure, or a failed
// re-initialization, halts the engine. A failed step keeps the last good
// image on screen; a failed clear shows the fresh backend's cleared image so
// a half-done reset is never visible.
func (e *Engine) guard(clearing bool, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	e.log.Error("fdtd backend failure", "error", err, "backend", e.backend.Name())
	if e.reinitUsed {
		return e.halt(err)
	}
	e.reinitUsed = true
	e.backend.Close()
	e.backend = nil
	b, rerr := e.factory(e.setup)
	if rerr != nil {
		return e.halt(errors.Join(err, rerr))
	}
	e.install(b)
	if clearing {
		e.presented = b.Surface()
	}
	e.log.Warn("fdtd backend re-initialized; field state lost", "backend", b.Name())
	return fmt.Errorf("%w: %w", ErrDeviceLost, err)
}

func (e *Engine) halt(err error) error {
	if e.backend != nil {
		e.backend.Close()
		e.backend = nil
	}
	e.halted = err
	e.state = StateIdle
	e.log.Error("fdtd engine halted", "error", err)
	return fmt.Errorf("%w: %w", ErrHalted, err)
}
