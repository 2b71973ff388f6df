package render

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"physviz/internal/compute"
	"physviz/internal/fdtd"
	"physviz/internal/optics"
	"physviz/internal/params"
	"physviz/internal/voxel"
)

func newTestRenderer(t *testing.T, mode params.Mode) (*Renderer, *fdtd.Engine, *params.Settings) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool := compute.NewPool(2)
	engine, err := fdtd.New(fdtd.Options{
		Width:  32,
		Height: 24,
		Source: fdtd.SourceConfig{X: 0.5, Y: 0.5, Amplitude: 1},
		Logger: logger,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)

	terrainCfg := voxel.DefaultTerrainConfig()
	terrainCfg.Size = 32
	terrainCfg.Octaves = 2
	settings := params.NewSettings(mode, params.DefaultOptics(), params.DefaultCamera())
	r := New(Options{
		Settings: settings,
		Engine:   engine,
		Grating:  optics.NewGrating(16, 12, pool),
		Voxel:    voxel.NewRenderer(16, 12, voxel.Generate(terrainCfg, pool), pool),
		Logger:   logger,
	})
	return r, engine, settings
}

func TestSurfaceFollowsMode(t *testing.T) {
	r, engine, _ := newTestRenderer(t, params.ModeWave)
	ctx := context.Background()

	for _, tc := range []struct {
		mode   params.Mode
		w, h   int
		isFdtd bool
	}{
		{params.ModeWave, 16, 12, false},
		{params.ModeFDTD, 32, 24, true},
		{params.ModeVoxelSpace, 16, 12, false},
	} {
		r.SetMode(tc.mode)
		if err := r.Frame(ctx, 16*time.Millisecond); err != nil {
			t.Fatalf("%v frame: %v", tc.mode, err)
		}
		s := r.Surface()
		if s.W != tc.w || s.H != tc.h {
			t.Fatalf("%v surface is %dx%d, want %dx%d", tc.mode, s.W, s.H, tc.w, tc.h)
		}
		if r.IsUsingFdtd() != tc.isFdtd {
			t.Fatalf("%v: IsUsingFdtd = %v", tc.mode, r.IsUsingFdtd())
		}
		if got := r.Context().Stats().Mode; got != tc.mode {
			t.Fatalf("context mode = %v, want %v", got, tc.mode)
		}
	}
	if r.Surface() == engine.Surface() {
		t.Fatal("voxel mode returned the fdtd surface")
	}
}

func TestEnteringFdtdResetsField(t *testing.T) {
	r, engine, _ := newTestRenderer(t, params.ModeFDTD)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := r.Frame(ctx, time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	if engine.Steps() != 5 {
		t.Fatalf("Steps() = %d, want 5", engine.Steps())
	}

	r.SetMode(params.ModeWave)
	if err := r.Frame(ctx, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	r.SetMode(params.ModeFDTD)
	if err := r.Frame(ctx, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if engine.Steps() != 0 {
		t.Fatalf("re-entering fdtd kept %d steps", engine.Steps())
	}
	if pass := r.Context().Stats().Pass; pass != "fdtd-reset" {
		t.Fatalf("pass = %q, want fdtd-reset", pass)
	}
	if err := r.Frame(ctx, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if engine.Steps() != 1 {
		t.Fatalf("stepping did not resume after the reset: %d", engine.Steps())
	}
}

func TestPauseAndReset(t *testing.T) {
	r, engine, settings := newTestRenderer(t, params.ModeFDTD)
	ctx := context.Background()
	if err := r.Frame(ctx, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	r.SetPaused(true)
	if err := r.Frame(ctx, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if engine.Steps() != 1 {
		t.Fatalf("paused frame stepped: %d", engine.Steps())
	}
	r.SetPaused(false)

	settings.Advance(3)
	if err := r.Reset(); err != nil {
		t.Fatal(err)
	}
	if engine.Steps() != 0 || settings.Elapsed() != 0 {
		t.Fatalf("Reset left steps=%d elapsed=%v", engine.Steps(), settings.Elapsed())
	}
}

func TestContextFPS(t *testing.T) {
	c := NewContext()
	for i := 0; i < 50; i++ {
		c.Update(10 * time.Millisecond)
	}
	s := c.Stats()
	if s.Frames != 50 || s.Delta != 10*time.Millisecond {
		t.Fatalf("stats = %+v", s)
	}
	if math.Abs(s.FPS-100) > 1e-9 {
		t.Fatalf("FPS = %v, want 100", s.FPS)
	}
	c.SetMetric("steps", "7")
	s.Metrics["steps"] = "changed"
	if c.Stats().Metrics["steps"] != "7" {
		t.Fatal("Stats should return a copy of the metrics")
	}
}
