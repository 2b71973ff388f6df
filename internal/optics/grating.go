// Package optics renders the far-field (Fraunhofer) intensity of an N-slit
// grating lit by monochromatic light.
package optics

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"physviz/internal/compute"
	"physviz/internal/grid"
	"physviz/internal/params"
)

// angularSpan is sin(θ) at the screen edge for ScreenSize 1.
const angularSpan = 0.1

// Grating draws the diffraction pattern into a canvas-sized surface.
type Grating struct {
	W, H    int
	surface *grid.Surface
	pool    *compute.Pool
	column  []float64
	rowFade []float64
}

// NewGrating allocates a w×h pattern surface.
func NewGrating(w, h int, pool *compute.Pool) *Grating {
	if pool == nil {
		pool = compute.NewPool(0)
	}
	s := grid.NewSurface(w, h)
	s.Fill(color.RGBA{A: 255})
	return &Grating{
		W:       s.W,
		H:       s.H,
		surface: s,
		pool:    pool,
		column:  make([]float64, s.W),
		rowFade: make([]float64, s.H),
	}
}

// Surface returns the last rendered pattern.
func (g *Grating) Surface() *grid.Surface { return g.surface }

// SinTheta maps a screen column to the sine of its diffraction angle.
func SinTheta(x, w int, screenSize float32) float64 {
	if w <= 1 {
		return 0
	}
	s := (2*float64(x)/float64(w-1) - 1) * angularSpan * float64(screenSize)
	return math.Max(-1, math.Min(1, s))
}

// Intensity returns the normalized grating intensity at sin(θ):
// sinc²(β)·(sin(Nα)/(N·sin α))², with β from the slit width and α from the
// slit spacing.
func Intensity(sinTheta float64, b params.Block) float64 {
	lambda := float64(b.Wavelength) * 1e-9
	if lambda <= 0 {
		return 0
	}
	a := float64(b.SlitWidth) * 1e-3
	d := b.SlitSpacingMM() * 1e-3
	n := max(1, b.Slits())

	beta := math.Pi * a * sinTheta / lambda
	single := 1.0
	if beta != 0 {
		s := math.Sin(beta) / beta
		single = s * s
	}

	alpha := math.Pi * d * sinTheta / lambda
	multi := 1.0
	if den := float64(n) * math.Sin(alpha); n > 1 && math.Abs(den) > 1e-9 {
		m := math.Sin(float64(n)*alpha) / den
		multi = m * m
	}
	return single * multi
}

// WavelengthColor approximates the visible colour of monochromatic light.
// Outside 380–780 nm it fades to black.
func WavelengthColor(nm float64) colorful.Color {
	var r, g, b float64
	switch {
	case nm >= 380 && nm < 440:
		r, b = (440-nm)/(440-380), 1
	case nm >= 440 && nm < 490:
		g, b = (nm-440)/(490-440), 1
	case nm >= 490 && nm < 510:
		g, b = 1, (510-nm)/(510-490)
	case nm >= 510 && nm < 580:
		r, g = (nm-510)/(580-510), 1
	case nm >= 580 && nm < 645:
		r, g = 1, (645-nm)/(645-580)
	case nm >= 645 && nm <= 780:
		r = 1
	}
	// Vision falls off at both ends of the spectrum.
	fade := 1.0
	switch {
	case nm >= 380 && nm < 420:
		fade = 0.3 + 0.7*(nm-380)/(420-380)
	case nm > 700 && nm <= 780:
		fade = 0.3 + 0.7*(780-nm)/(780-700)
	}
	return colorful.Color{R: r * fade, G: g * fade, B: b * fade}
}

// Render evaluates the pattern for b. Intensity depends only on the column;
// rows fade towards the top and bottom like a slit image.
func (g *Grating) Render(b params.Block) {
	for x := range g.column {
		g.column[x] = Intensity(SinTheta(x, g.W, b.ScreenSize), b)
	}
	tr, tg, tb := WavelengthColor(float64(b.Wavelength)).LinearRgb()
	mid := float64(g.H-1) / 2
	sigma := math.Max(1, float64(g.H)/4)
	for y := range g.rowFade {
		dy := (float64(y) - mid) / sigma
		g.rowFade[y] = math.Exp(-0.5 * dy * dy)
	}

	g.pool.Dispatch(g.W, g.H, func(x, y int) {
		k := g.column[x] * g.rowFade[y]
		r8, g8, b8 := colorful.LinearRgb(tr*k, tg*k, tb*k).Clamped().RGB255()
		g.surface.SetRGBA(y*g.W+x, color.RGBA{R: r8, G: g8, B: b8, A: 255})
	})
}
