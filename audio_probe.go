package main

import (
	"encoding/binary"
	"io"
	"sync"
)

const (
	audioSampleRate = 48000
	// audioFrameBytes is one 16-bit stereo frame.
	audioFrameBytes = 4

	// dcAlpha is the per-sample weight of the DC tracker.
	dcAlpha = 0.001
	// peakDecay lets the level follower forget a loud passage; it releases
	// more slowly than the DC tracker follows.
	peakDecay = 0.9999
	minPeak   = 1e-3
)

// probeAudioStream plays the probe's Ez reading. Readings arrive once per
// frame, far below the audio rate, so each Read ramps linearly from the
// previous level to the newest one. The signal is AC coupled and normalized
// by a decaying peak so quiet fields stay audible.
type probeAudioStream struct {
	mu     sync.Mutex
	dc     float32
	peak   float32
	from   float32
	target float32
}

var _ io.ReadCloser = (*probeAudioStream)(nil)

func newProbeAudioStream() *probeAudioStream {
	return &probeAudioStream{}
}

// SetSample receives one probe reading.
func (s *probeAudioStream) SetSample(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc += dcAlpha * (v - s.dc)
	ac := v - s.dc
	mag := ac
	if mag < 0 {
		mag = -mag
	}
	s.peak = max(mag, s.peak*peakDecay)
	level := ac / max(s.peak, minPeak)
	s.target = min(max(level, -1), 1)
}

// level returns the value the next Read ends on.
func (s *probeAudioStream) level() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *probeAudioStream) Read(p []byte) (int, error) {
	frames := len(p) / audioFrameBytes
	if frames == 0 {
		return 0, nil
	}
	s.mu.Lock()
	from, to := s.from, s.target
	s.from = to
	s.mu.Unlock()

	for i := 0; i < frames; i++ {
		t := float32(i+1) / float32(frames)
		v := uint16(int16((from + (to-from)*t) * 32767))
		binary.LittleEndian.PutUint16(p[i*audioFrameBytes:], v)
		binary.LittleEndian.PutUint16(p[i*audioFrameBytes+2:], v)
	}
	return frames * audioFrameBytes, nil
}

func (s *probeAudioStream) Close() error { return nil }
