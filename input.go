package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"physviz/internal/params"
)

const (
	minStepsPerFrame = 1
	maxStepsPerFrame = 64

	minWavelengthNM  = 380
	maxWavelengthNM  = 780
	wavelengthStepNM = 10

	maxSlitCount = 64
)

// handleModeKeys switches modes with 1, 2, 3 or Tab.
func (g *Game) handleModeKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit1):
		g.renderer.SetMode(params.ModeWave)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit2):
		g.renderer.SetMode(params.ModeFDTD)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit3):
		g.renderer.SetMode(params.ModeVoxelSpace)
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		g.renderer.SetMode(g.renderer.Mode().Next())
	}
}

// handleSimulationKeys processes reset, pause, speed and optics hotkeys.
func (g *Game) handleSimulationKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.renderer.Reset(); err != nil {
			g.log.Warn("reset failed", "error", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.renderer.SetPaused(!g.renderer.Paused())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debug = !g.debug
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) && g.engine.Halted() {
		if err := g.renderer.Reinitialize(); err != nil {
			g.log.Error("fdtd re-initialization failed", "error", err)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.engine.SetStepsPerFrame(clampInt(g.engine.StepsPerFrame()-1, minStepsPerFrame, maxStepsPerFrame))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.engine.SetStepsPerFrame(clampInt(g.engine.StepsPerFrame()+1, minStepsPerFrame, maxStepsPerFrame))
	}

	wavelength := 0
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		wavelength--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		wavelength++
	}
	slits := 0
	if inpututil.IsKeyJustPressed(ebiten.KeyComma) {
		slits--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		slits++
	}
	if wavelength != 0 || slits != 0 {
		g.settings.UpdateOptics(func(o *params.Optics) {
			nudgeOptics(o, wavelength, slits)
		})
	}
}

// handleCameraKeys flies the VoxelSpace camera with WASD, Q and E.
func (g *Game) handleCameraKeys() {
	if g.renderer.Mode() != params.ModeVoxelSpace {
		return
	}
	g.settings.UpdateCamera(params.Controls{
		Forward:   ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Backward:  ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		TurnLeft:  ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		TurnRight: ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Up:        ebiten.IsKeyPressed(ebiten.KeyE),
		Down:      ebiten.IsKeyPressed(ebiten.KeyQ),
	})
}

// nudgeOptics moves the wavelength by whole steps across the visible range
// and the slit count by whole slits, keeping at least one slit.
func nudgeOptics(o *params.Optics, wavelengthSteps, slitSteps int) {
	o.Wavelength += float32(wavelengthSteps * wavelengthStepNM)
	if o.Wavelength < minWavelengthNM {
		o.Wavelength = minWavelengthNM
	} else if o.Wavelength > maxWavelengthNM {
		o.Wavelength = maxWavelengthNM
	}
	o.SlitCount = float32(clampInt(int(o.SlitCount)+slitSteps, 1, maxSlitCount))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
