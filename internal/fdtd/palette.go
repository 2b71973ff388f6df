package fdtd

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"physviz/internal/grid"
)

// PaletteSize is the number of entries in the diverging field palette. It is
// odd so that a zero field lands exactly on the centre entry.
const PaletteSize = 513

const (
	negativeHue = 218.0
	positiveHue = 18.0
)

// ResetColor is the sentinel every surface pixel takes after a reset. It is
// the palette colour of a zero field.
var ResetColor = color.RGBA{A: 255}

// Palette maps a normalized field value in [-1, 1] to a display colour:
// blue for negative, orange for positive and black at zero.
type Palette struct {
	entries [PaletteSize]color.RGBA
}

// NewPalette builds the lookup table. Brightness follows sqrt(|v|) so weak
// ripples far from the source remain visible.
func NewPalette() *Palette {
	p := &Palette{}
	last := PaletteSize - 1
	for i := range p.entries {
		v := float64(i)/float64(last)*2 - 1
		m := math.Sqrt(math.Abs(v))
		hue, sat := positiveHue, 0.95
		if v < 0 {
			hue, sat = negativeHue, 0.85
		}
		r, g, b := colorful.Hsv(hue, sat, m).Clamped().RGB255()
		p.entries[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	p.entries[last/2] = ResetColor
	return p
}

// Index returns the palette slot for a field value after gain. NaN and
// out-of-range values saturate.
func (p *Palette) Index(ez, gain float32) int {
	v := ez * gain
	if v > 1 {
		v = 1
	} else if !(v >= -1) {
		v = -1
	}
	last := PaletteSize - 1
	idx := int((v+1)*0.5*float32(last) + 0.5)
	if idx < 0 {
		return 0
	}
	if idx > last {
		return last
	}
	return idx
}

// Color returns the display colour of a field value.
func (p *Palette) Color(ez, gain float32) color.RGBA {
	return p.entries[p.Index(ez, gain)]
}

// Bytes returns the table as packed RGBA8 for device upload.
func (p *Palette) Bytes() []byte {
	out := make([]byte, PaletteSize*4)
	for i, c := range p.entries {
		out[i*4+0] = c.R
		out[i*4+1] = c.G
		out[i*4+2] = c.B
		out[i*4+3] = c.A
	}
	return out
}

// paintRows writes the colours of Ez rows [y0, y1) into the surface. Each
// pixel depends only on its own cell.
func (p *Palette) paintRows(ez *grid.Plane, dst *grid.Surface, gain float32, y0, y1 int) {
	cells := ez.Cells()
	for y := y0; y < y1; y++ {
		for x := 0; x < ez.W; x++ {
			i := y*ez.W + x
			dst.SetRGBA(i, p.Color(cells[i], gain))
		}
	}
}
