package voxel

import (
	"bytes"
	"image/color"
	"testing"

	"physviz/internal/compute"
	"physviz/internal/params"
)

func smallConfig() TerrainConfig {
	cfg := DefaultTerrainConfig()
	cfg.Size = 64
	cfg.Octaves = 3
	return cfg
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(smallConfig(), compute.NewPool(1))
	b := Generate(smallConfig(), compute.NewPool(4))
	if !bytes.Equal(a.heights, b.heights) {
		t.Fatal("same seed produced different height maps")
	}
	other := smallConfig()
	other.Seed = 99
	c := Generate(other, compute.NewPool(4))
	if bytes.Equal(a.heights, c.heights) {
		t.Fatal("different seeds produced identical height maps")
	}
}

func TestTerrainWrapsAndFloorsAtWater(t *testing.T) {
	cfg := smallConfig()
	tr := Generate(cfg, nil)
	if tr.Height(-1, 5) != tr.Height(cfg.Size-1, 5) {
		t.Fatal("negative x should wrap")
	}
	if tr.Color(3, cfg.Size+2) != tr.Color(3, 2) {
		t.Fatal("y past the edge should wrap")
	}
	floor := uint8(cfg.WaterLevel*255 + 0.5)
	for i, h := range tr.heights {
		if h < floor {
			t.Fatalf("cell %d height %d below the water floor %d", i, h, floor)
		}
		if tr.colors[i].A != 255 {
			t.Fatalf("cell %d is not opaque", i)
		}
	}
}

func TestGroundColorBands(t *testing.T) {
	deep := groundColor(0.05, 0.3)
	if deep.B <= deep.R {
		t.Fatalf("deep water %+v should be blue", deep)
	}
	grass := groundColor(0.3*1.3, 0.3)
	if grass.G <= grass.R || grass.G <= grass.B {
		t.Fatalf("lowland %+v should be green", grass)
	}
	snow := groundColor(0.99, 0.3)
	if snow.R < 0.8 || snow.G < 0.8 || snow.B < 0.8 {
		t.Fatalf("peaks %+v should be near white", snow)
	}
}

func flatTerrain(size int, height uint8, c color.RGBA) *Terrain {
	t := &Terrain{Size: size, heights: make([]uint8, size*size), colors: make([]color.RGBA, size*size)}
	for i := range t.heights {
		t.heights[i] = height
		t.colors[i] = c
	}
	return t
}

func TestRenderFlatGroundBelowHorizon(t *testing.T) {
	ground := color.RGBA{R: 10, G: 200, B: 10, A: 255}
	r := NewRenderer(32, 40, flatTerrain(64, 0, ground), compute.NewPool(2))
	cam := params.DefaultCamera()
	cam.Horizon = 20
	cam.Scale = 10
	cam.Distance = 200
	r.Render(cam)
	s := r.Surface()

	for x := 0; x < r.W; x++ {
		if got := s.At(x, 0); got != r.sky[0] {
			t.Fatalf("column %d top = %v, want sky", x, got)
		}
		if got := s.At(x, r.H-1); got.G <= got.R {
			t.Fatalf("column %d bottom = %v, want ground", x, got)
		}
	}
}

func TestRenderColumnsHaveNoSkyBelowGround(t *testing.T) {
	tr := Generate(smallConfig(), nil)
	r := NewRenderer(48, 36, tr, nil)
	cam := params.DefaultCamera()
	cam.X, cam.Y = 10, 10
	cam.Horizon = 12
	cam.Scale = 30
	cam.Distance = 120
	r.Render(cam)
	s := r.Surface()

	groundColumns := 0
	for x := 0; x < r.W; x++ {
		if s.At(x, r.H-1) != r.sky[r.H-1] {
			groundColumns++
		}
		seenGround := false
		for y := 0; y < r.H; y++ {
			isSky := s.At(x, y) == r.sky[y]
			if !isSky {
				seenGround = true
			} else if seenGround {
				t.Fatalf("column %d has sky at row %d below terrain", x, y)
			}
		}
	}
	if groundColumns == 0 {
		t.Fatal("no terrain visible from the test camera")
	}
}
