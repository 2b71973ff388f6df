// Package params holds the per-frame uniform parameter block, the settings it
// is snapshotted from, and the render mode variant.
package params

import (
	"encoding/binary"
	"math"
)

// BlockSize is the byte size of a packed Block: six float32 values.
const BlockSize = 6 * 4

// Block is the ordered set of scalars shared by every cell of a pass. It is
// written once per frame by the orchestrator before any pass reads it.
type Block struct {
	ElapsedTime float32
	Wavelength  float32 // nanometres
	SlitWidth   float32 // millimetres
	GrateWidth  float32 // millimetres
	SlitCount   float32
	ScreenSize  float32
}

// Pack returns the block in upload order.
func (b Block) Pack() [6]float32 {
	return [6]float32{b.ElapsedTime, b.Wavelength, b.SlitWidth, b.GrateWidth, b.SlitCount, b.ScreenSize}
}

// Bytes returns the little-endian image of the packed block.
func (b Block) Bytes() []byte {
	out := make([]byte, BlockSize)
	for i, v := range b.Pack() {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// Slits returns SlitCount rounded to a non-negative integer.
func (b Block) Slits() int {
	n := int(math.Round(float64(b.SlitCount)))
	if n < 0 {
		return 0
	}
	return n
}

// SlitSpacingMM returns the centre-to-centre slit distance across the grating.
func (b Block) SlitSpacingMM() float64 {
	n := b.Slits()
	if n < 2 {
		return float64(b.GrateWidth)
	}
	return float64(b.GrateWidth) / float64(n-1)
}

// DiffractionAngle returns the first-order grating angle in degrees, or NaN
// when the wavelength exceeds the slit spacing.
func (b Block) DiffractionAngle() float64 {
	wavelength := float64(b.Wavelength) * 1e-9
	spacing := b.SlitSpacingMM() * 1e-3
	if spacing <= 0 {
		return math.NaN()
	}
	return math.Asin(wavelength/spacing) * 180 / math.Pi
}

// SameGeometry reports whether two blocks describe the same grating.
func (b Block) SameGeometry(o Block) bool {
	return b.SlitWidth == o.SlitWidth &&
		b.GrateWidth == o.GrateWidth &&
		b.SlitCount == o.SlitCount &&
		b.ScreenSize == o.ScreenSize
}
