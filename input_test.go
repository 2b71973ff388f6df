package main

import (
	"testing"

	"physviz/internal/params"
)

func TestNudgeOptics(t *testing.T) {
	tests := []struct {
		name              string
		start             params.Optics
		wavelength, slits int
		wantNM, wantSlits float32
	}{
		{"up", params.Optics{Wavelength: 500, SlitCount: 10}, 1, 1, 510, 11},
		{"down", params.Optics{Wavelength: 500, SlitCount: 10}, -1, -1, 490, 9},
		{"violet edge", params.Optics{Wavelength: 385, SlitCount: 1}, -1, -1, 380, 1},
		{"red edge", params.Optics{Wavelength: 775, SlitCount: 64}, 1, 1, 780, 64},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := tc.start
			nudgeOptics(&o, tc.wavelength, tc.slits)
			if o.Wavelength != tc.wantNM || o.SlitCount != tc.wantSlits {
				t.Fatalf("got %v nm, %v slits; want %v nm, %v slits", o.Wavelength, o.SlitCount, tc.wantNM, tc.wantSlits)
			}
		})
	}
}

func TestClampInt(t *testing.T) {
	if clampInt(0, 1, 64) != 1 || clampInt(65, 1, 64) != 64 || clampInt(7, 1, 64) != 7 {
		t.Fatal("clampInt out of range")
	}
}
