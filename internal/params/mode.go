package params

import "fmt"

// Mode selects which simulation renders the frame.
type Mode int

const (
	// ModeWave renders the scalar Fraunhofer grating pattern.
	ModeWave Mode = iota
	// ModeFDTD advances and renders the electromagnetic field solver.
	ModeFDTD
	// ModeVoxelSpace renders the heightfield terrain.
	ModeVoxelSpace

	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeWave:
		return "wave"
	case ModeFDTD:
		return "fdtd"
	case ModeVoxelSpace:
		return "voxelspace"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Next cycles to the following mode.
func (m Mode) Next() Mode {
	return (m + 1) % modeCount
}

// ParseMode maps a mode name back to its value.
func ParseMode(s string) (Mode, error) {
	for m := ModeWave; m < modeCount; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeWave, fmt.Errorf("unknown render mode %q (want wave, fdtd or voxelspace)", s)
}
