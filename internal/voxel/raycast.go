package voxel

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"physviz/internal/compute"
	"physviz/internal/grid"
	"physviz/internal/params"
)

const fieldOfView = math.Pi / 2

// Renderer draws the terrain column by column, nearest slice first. Each
// column keeps the highest screen row drawn so far and only paints above it,
// so nearer hills occlude farther ones without a depth buffer.
type Renderer struct {
	W, H    int
	terrain *Terrain
	surface *grid.Surface
	pool    *compute.Pool
	sky     []color.RGBA
	fog     colorful.Color
}

// NewRenderer prepares a w×h view of t.
func NewRenderer(w, h int, t *Terrain, pool *compute.Pool) *Renderer {
	if pool == nil {
		pool = compute.NewPool(0)
	}
	s := grid.NewSurface(w, h)
	r := &Renderer{W: s.W, H: s.H, terrain: t, surface: s, pool: pool}

	zenith := colorful.Color{R: 0.18, G: 0.35, B: 0.70}
	horizon := colorful.Color{R: 0.70, G: 0.80, B: 0.92}
	r.fog = horizon
	r.sky = make([]color.RGBA, r.H)
	for y := range r.sky {
		c := zenith.BlendLab(horizon, float64(y)/float64(max(1, r.H-1))).Clamped()
		cr, cg, cb := c.RGB255()
		r.sky[y] = color.RGBA{R: cr, G: cg, B: cb, A: 255}
	}
	return r
}

// Surface returns the last rendered view.
func (r *Renderer) Surface() *grid.Surface { return r.surface }

// Render draws the view from cam.
func (r *Renderer) Render(cam params.Camera) {
	fr, fg, fb := r.fog.RGB255()
	r.pool.Split(r.W, func(x0, x1 int) {
		for x := x0; x < x1; x++ {
			r.renderColumn(cam, x, fr, fg, fb)
		}
	})
}

func (r *Renderer) renderColumn(cam params.Camera, col int, fr, fg, fb uint8) {
	offset := (float64(col)/float64(max(1, r.W-1)) - 0.5) * fieldOfView
	dirX := math.Sin(cam.Angle + offset)
	dirY := math.Cos(cam.Angle + offset)
	// Project onto the view axis to avoid fisheye bending.
	perp := math.Cos(offset)

	yBuffer := r.H
	dz := 1.0
	for z := 1.0; z < cam.Distance && yBuffer > 0; z += dz {
		mx := int(math.Floor(cam.X + dirX*z))
		my := int(math.Floor(cam.Y + dirY*z))
		height := float64(r.terrain.Height(mx, my))
		screenY := int((cam.Height-height)/(z*perp)*cam.Scale + cam.Horizon)
		if screenY < 0 {
			screenY = 0
		}
		if screenY < yBuffer {
			c := fogged(r.terrain.Color(mx, my), z/cam.Distance, fr, fg, fb)
			for y := screenY; y < yBuffer; y++ {
				r.surface.SetRGBA(y*r.W+col, c)
			}
			yBuffer = screenY
		}
		// Step size grows with distance; far slices need less detail.
		dz += 0.005 * z / 10
	}
	for y := 0; y < yBuffer; y++ {
		r.surface.SetRGBA(y*r.W+col, r.sky[y])
	}
}

func fogged(c color.RGBA, t float64, fr, fg, fb uint8) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	t *= t
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return color.RGBA{R: mix(c.R, fr), G: mix(c.G, fg), B: mix(c.B, fb), A: 255}
}
