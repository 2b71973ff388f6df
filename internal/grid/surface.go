package grid

import "image/color"

// Surface is a W×H image of 4-channel 8-bit pixels, laid out the way
// ebiten's WritePixels expects.
type Surface struct {
	W, H int
	pix  []byte
}

// NewSurface allocates a surface cleared to transparent black.
func NewSurface(w, h int) *Surface {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Surface{W: w, H: h, pix: make([]byte, w*h*4)}
}

// Pix exposes the RGBA byte slice.
func (s *Surface) Pix() []byte { return s.pix }

// At returns the pixel at (x, y).
func (s *Surface) At(x, y int) color.RGBA {
	base := (y*s.W + x) * 4
	return color.RGBA{R: s.pix[base], G: s.pix[base+1], B: s.pix[base+2], A: s.pix[base+3]}
}

// SetRGBA writes one pixel by linear cell index.
func (s *Surface) SetRGBA(i int, c color.RGBA) {
	base := i * 4
	s.pix[base+0] = c.R
	s.pix[base+1] = c.G
	s.pix[base+2] = c.B
	s.pix[base+3] = c.A
}

// Fill sets every pixel to c.
func (s *Surface) Fill(c color.RGBA) {
	for i := 0; i < s.W*s.H; i++ {
		s.SetRGBA(i, c)
	}
}

// Clone returns an independent copy of the surface.
func (s *Surface) Clone() *Surface {
	out := &Surface{W: s.W, H: s.H, pix: make([]byte, len(s.pix))}
	copy(out.pix, s.pix)
	return out
}
