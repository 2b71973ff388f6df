package main

import (
	"strings"
	"testing"
	"time"

	"physviz/internal/params"
	"physviz/internal/probe"
	"physviz/internal/render"
)

func testOverlayState() overlayState {
	o := params.DefaultOptics()
	return overlayState{
		Stats: render.Stats{
			FPS:     59.9,
			Delta:   16 * time.Millisecond,
			Mode:    params.ModeFDTD,
			Pass:    "fdtd-step",
			Width:   960,
			Height:  540,
			Device:  "cpu",
			Metrics: map[string]string{"steps": "120"},
		},
		Block: params.Block{
			Wavelength: o.Wavelength,
			SlitWidth:  o.SlitWidth,
			GrateWidth: o.GrateWidth,
			SlitCount:  o.SlitCount,
			ScreenSize: o.ScreenSize,
		},
		Steps:  2,
		Halted: true,
	}
}

func TestOverlayText(t *testing.T) {
	got := overlayText(testOverlayState())
	for _, want := range []string{
		"FPS: 59.9", "Mode: fdtd", "fdtd-step", "960x540 on cpu",
		"Lambda: 500 nm", "Steps/frame: 2", "Diffraction angle: 0.86 deg",
		"steps: 120", "HALTED",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("overlay missing %q:\n%s", want, got)
		}
	}
	for _, absent := range []string{"PAUSED", "Probe:"} {
		if strings.Contains(got, absent) {
			t.Errorf("overlay shows %q:\n%s", absent, got)
		}
	}
}

func TestOverlayTextProbeAndNoAngle(t *testing.T) {
	st := testOverlayState()
	st.Block.Wavelength = 780
	st.Block.GrateWidth = 0.0005
	st.Probe = &probe.Sample{Ez: -0.25, Energy: 3}
	got := overlayText(st)
	for _, want := range []string{"Diffraction angle: none", "Probe: ez -0.250  energy 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("overlay missing %q:\n%s", want, got)
		}
	}
}
