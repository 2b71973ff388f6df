package params

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestBlockPackOrder(t *testing.T) {
	b := Block{ElapsedTime: 1, Wavelength: 2, SlitWidth: 3, GrateWidth: 4, SlitCount: 5, ScreenSize: 6}
	got := b.Pack()
	for i, v := range got {
		if v != float32(i+1) {
			t.Fatalf("Pack()[%d] = %v, want %v", i, v, i+1)
		}
	}
	raw := b.Bytes()
	if len(raw) != BlockSize {
		t.Fatalf("Bytes() length = %d, want %d", len(raw), BlockSize)
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(raw[20:])); v != 6 {
		t.Fatalf("last packed value = %v, want 6", v)
	}
}

func TestDiffractionAngle(t *testing.T) {
	b := Block{Wavelength: 500, GrateWidth: 0.3, SlitCount: 10}
	// spacing = 0.3mm / 9, angle = asin(500e-9 / 33.3e-6); the block
	// carries float32 values.
	grate := float64(float32(0.3))
	want := math.Asin(float64(float32(500))*1e-9/(grate/9*1e-3)) * 180 / math.Pi
	if got := b.DiffractionAngle(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("DiffractionAngle() = %v, want %v", got, want)
	}
	if !math.IsNaN(Block{Wavelength: 500}.DiffractionAngle()) {
		t.Fatal("zero grate width should report NaN")
	}
}

func TestParseModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeWave, ModeFDTD, ModeVoxelSpace} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("raster"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if ModeVoxelSpace.Next() != ModeWave {
		t.Fatal("Next should wrap around to ModeWave")
	}
}

func TestSettingsBlockSnapshot(t *testing.T) {
	s := NewSettings(ModeFDTD, DefaultOptics(), DefaultCamera())
	s.UpdateOptics(func(o *Optics) { o.Wavelength = 650 })
	b := s.Block(2.5)
	if b.ElapsedTime != 2.5 || b.Wavelength != 650 || b.SlitCount != 10 {
		t.Fatalf("unexpected block %+v", b)
	}
	s.Advance(0.25)
	s.Advance(0.25)
	if s.Elapsed() != 0.5 {
		t.Fatalf("Elapsed() = %v, want 0.5", s.Elapsed())
	}
	s.ResetTime()
	if s.Elapsed() != 0 {
		t.Fatal("ResetTime did not zero elapsed time")
	}
}

func TestCameraWrapsAndClamps(t *testing.T) {
	c := DefaultCamera()
	c.X, c.Y = 1022, 2
	c.Angle = math.Pi / 2
	c.Update(Controls{Forward: true})
	if c.X < 0 || c.X >= c.MapSize {
		t.Fatalf("X = %v escaped the map", c.X)
	}
	if math.Abs(c.X-3) > 1e-9 {
		t.Fatalf("X = %v, want wrap to 3", c.X)
	}

	c.Height = maxCameraHeight
	c.Update(Controls{Up: true})
	if c.Height != maxCameraHeight {
		t.Fatalf("Height = %v, climbed past the ceiling", c.Height)
	}
	c.Height = minCameraHeight
	c.Update(Controls{Down: true})
	if c.Height != minCameraHeight {
		t.Fatalf("Height = %v, dropped below the floor", c.Height)
	}
}
