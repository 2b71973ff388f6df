package params

import "math"

const (
	minCameraHeight = 20
	maxCameraHeight = 300
	climbRate       = 2
)

// Camera places the VoxelSpace viewer over the height map.
type Camera struct {
	X, Y     float64
	Height   float64
	Angle    float64 // radians
	Horizon  float64 // pixels from the top of the surface
	Scale    float64 // screen-space height scale
	Distance float64 // draw distance in map cells

	MoveSpeed float64
	TurnSpeed float64
	MapSize   float64
}

// DefaultCamera returns the starting view over a 1024×1024 map.
func DefaultCamera() Camera {
	return Camera{
		X:         500,
		Y:         500,
		Height:    100,
		Horizon:   100,
		Scale:     240,
		Distance:  800,
		MoveSpeed: 5,
		TurnSpeed: 0.05,
		MapSize:   1024,
	}
}

// Controls is the held-key state for one frame.
type Controls struct {
	Forward, Backward bool
	TurnLeft          bool
	TurnRight         bool
	Up, Down          bool
}

// Update moves the camera by one frame of input and wraps it onto the map.
func (c *Camera) Update(in Controls) {
	if in.Forward {
		c.X += math.Sin(c.Angle) * c.MoveSpeed
		c.Y += math.Cos(c.Angle) * c.MoveSpeed
	}
	if in.Backward {
		c.X -= math.Sin(c.Angle) * c.MoveSpeed
		c.Y -= math.Cos(c.Angle) * c.MoveSpeed
	}
	if in.TurnLeft {
		c.Angle -= c.TurnSpeed
	}
	if in.TurnRight {
		c.Angle += c.TurnSpeed
	}
	if in.Up && c.Height < maxCameraHeight {
		c.Height += climbRate
	}
	if in.Down && c.Height > minCameraHeight {
		c.Height -= climbRate
	}
	if c.MapSize > 0 {
		c.X = math.Mod(math.Mod(c.X, c.MapSize)+c.MapSize, c.MapSize)
		c.Y = math.Mod(math.Mod(c.Y, c.MapSize)+c.MapSize, c.MapSize)
	}
}
