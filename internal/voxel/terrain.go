// Package voxel renders a procedurally generated height map with the
// VoxelSpace column raycaster.
package voxel

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/ojrac/opensimplex-go"

	"physviz/internal/compute"
)

// TerrainConfig controls height map generation.
type TerrainConfig struct {
	Size        int
	Seed        int64
	Octaves     int
	Persistence float64 // amplitude falloff per octave
	Frequency   float64 // features across the map at the first octave
	WaterLevel  float64 // normalized height below which cells are water
}

// DefaultTerrainConfig returns a 1024×1024 island-and-hills map.
func DefaultTerrainConfig() TerrainConfig {
	return TerrainConfig{
		Size:        1024,
		Seed:        1,
		Octaves:     6,
		Persistence: 0.5,
		Frequency:   3,
		WaterLevel:  0.32,
	}
}

// Terrain is a square, wrapping height and colour map.
type Terrain struct {
	Size    int
	heights []uint8
	colors  []color.RGBA
}

// Height returns the height at (x, y), wrapping around the map edges.
func (t *Terrain) Height(x, y int) uint8 {
	return t.heights[t.index(x, y)]
}

// Color returns the ground colour at (x, y), wrapping around the map edges.
func (t *Terrain) Color(x, y int) color.RGBA {
	return t.colors[t.index(x, y)]
}

func (t *Terrain) index(x, y int) int {
	n := t.Size
	x = ((x % n) + n) % n
	y = ((y % n) + n) % n
	return y*n + x
}

type band struct {
	top       float64
	low, high colorful.Color
}

// bands are ordered by height; colours blend in Lab space within a band.
var bands = []band{
	{1, colorful.Color{R: 0.05, G: 0.20, B: 0.50}, colorful.Color{R: 0.15, G: 0.45, B: 0.65}},
	{1.06, colorful.Color{R: 0.76, G: 0.70, B: 0.50}, colorful.Color{R: 0.70, G: 0.65, B: 0.45}},
	{1.45, colorful.Color{R: 0.25, G: 0.50, B: 0.18}, colorful.Color{R: 0.12, G: 0.35, B: 0.12}},
	{1.8, colorful.Color{R: 0.40, G: 0.36, B: 0.32}, colorful.Color{R: 0.50, G: 0.48, B: 0.46}},
	{2.2, colorful.Color{R: 0.85, G: 0.85, B: 0.88}, colorful.Color{R: 1, G: 1, B: 1}},
}

// groundColor picks the band colour for a normalized height. Band tops are
// relative to the water level: 1 is the shoreline.
func groundColor(h, water float64) colorful.Color {
	if water <= 0 {
		water = 1e-3
	}
	rel := h / water
	prev := 0.0
	for i := 0; i < len(bands); i++ {
		b := bands[i]
		if rel <= b.top || i == len(bands)-1 {
			t := (rel - prev) / (b.top - prev)
			t = math.Max(0, math.Min(1, t))
			return b.low.BlendLab(b.high, t).Clamped()
		}
		prev = b.top
	}
	return bands[len(bands)-1].high
}

// Generate builds a seamless terrain from fractal OpenSimplex noise. The map
// is sampled on a 4D torus so it tiles without seams.
func Generate(cfg TerrainConfig, pool *compute.Pool) *Terrain {
	if cfg.Size <= 0 {
		cfg.Size = 1024
	}
	if cfg.Octaves <= 0 {
		cfg.Octaves = 1
	}
	if pool == nil {
		pool = compute.NewPool(0)
	}
	n := cfg.Size
	noise := opensimplex.NewNormalized(cfg.Seed)
	t := &Terrain{
		Size:    n,
		heights: make([]uint8, n*n),
		colors:  make([]color.RGBA, n*n),
	}
	raw := make([]float64, n*n)

	pool.Split(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := 2 * math.Pi * float64(y) / float64(n)
			for x := 0; x < n; x++ {
				u := 2 * math.Pi * float64(x) / float64(n)
				raw[y*n+x] = fbm(noise, u, v, cfg)
			}
		}
	})

	pool.Split(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < n; x++ {
				h := raw[y*n+x]
				if h < cfg.WaterLevel {
					h = cfg.WaterLevel
				}
				t.heights[y*n+x] = uint8(math.Round(h * 255))
			}
		}
	})

	pool.Split(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < n; x++ {
				c := groundColor(raw[y*n+x], cfg.WaterLevel)
				// Light from the west: slopes facing it brighten.
				slope := float64(int(t.Height(x, y))-int(t.Height(x-1, y))) / 32
				shade := math.Max(0.6, math.Min(1.3, 1+slope))
				r, g, b := colorful.Color{R: c.R * shade, G: c.G * shade, B: c.B * shade}.Clamped().RGB255()
				t.colors[y*n+x] = color.RGBA{R: r, G: g, B: b, A: 255}
			}
		}
	})
	return t
}

func fbm(noise opensimplex.Noise, u, v float64, cfg TerrainConfig) float64 {
	radius := cfg.Frequency / (2 * math.Pi)
	amp, total, norm := 1.0, 0.0, 0.0
	for o := 0; o < cfg.Octaves; o++ {
		r := radius * math.Pow(2, float64(o))
		shift := float64(o) * 17.3
		total += amp * noise.Eval4(shift+r*math.Cos(u), r*math.Sin(u), r*math.Cos(v), shift+r*math.Sin(v))
		norm += amp
		amp *= cfg.Persistence
	}
	if norm == 0 {
		return 0
	}
	return total / norm
}
