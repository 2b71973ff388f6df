package params

import "sync"

// Optics are the slider-controlled values shared by the wave and FDTD modes.
type Optics struct {
	Wavelength float32
	SlitWidth  float32
	GrateWidth float32
	SlitCount  float32
	ScreenSize float32
}

// DefaultOptics returns green light through a ten-slit, 0.3 mm grating.
func DefaultOptics() Optics {
	return Optics{
		Wavelength: 500,
		SlitWidth:  0.005,
		GrateWidth: 0.3,
		SlitCount:  10,
		ScreenSize: 1,
	}
}

// Settings is the externally owned state the host edits between frames.
// It is passed by reference to the renderer instead of living in a global.
type Settings struct {
	mu      sync.Mutex
	mode    Mode
	optics  Optics
	camera  Camera
	elapsed float32
}

// NewSettings builds settings with the given initial state.
func NewSettings(mode Mode, optics Optics, camera Camera) *Settings {
	return &Settings{mode: mode, optics: optics, camera: camera}
}

// Mode returns the active render mode.
func (s *Settings) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode changes the active render mode.
func (s *Settings) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// Optics returns a copy of the optics values.
func (s *Settings) Optics() Optics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optics
}

// UpdateOptics applies fn to the optics values under the settings lock.
func (s *Settings) UpdateOptics(fn func(*Optics)) {
	s.mu.Lock()
	fn(&s.optics)
	s.mu.Unlock()
}

// Camera returns a copy of the VoxelSpace camera.
func (s *Settings) Camera() Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// UpdateCamera advances the VoxelSpace camera by one frame of input.
func (s *Settings) UpdateCamera(c Controls) {
	s.mu.Lock()
	s.camera.Update(c)
	s.mu.Unlock()
}

// Advance adds dt seconds to the wall-clock elapsed time used by the wave mode.
func (s *Settings) Advance(dt float32) {
	s.mu.Lock()
	s.elapsed += dt
	s.mu.Unlock()
}

// ResetTime zeroes the elapsed time.
func (s *Settings) ResetTime() {
	s.mu.Lock()
	s.elapsed = 0
	s.mu.Unlock()
}

// Elapsed returns the wall-clock elapsed time.
func (s *Settings) Elapsed() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Block snapshots the optics values into a parameter block stamped with
// elapsed.
func (s *Settings) Block(elapsed float32) Block {
	s.mu.Lock()
	o := s.optics
	s.mu.Unlock()
	return Block{
		ElapsedTime: elapsed,
		Wavelength:  o.Wavelength,
		SlitWidth:   o.SlitWidth,
		GrateWidth:  o.GrateWidth,
		SlitCount:   o.SlitCount,
		ScreenSize:  o.ScreenSize,
	}
}
