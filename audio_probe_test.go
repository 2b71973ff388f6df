package main

import (
	"encoding/binary"
	"testing"
)

func readFrames(t *testing.T, s *probeAudioStream, n int) []int16 {
	t.Helper()
	buf := make([]byte, n*audioFrameBytes+3)
	got, err := s.Read(buf)
	if err != nil || got != n*audioFrameBytes {
		t.Fatalf("Read = %d, %v; want %d bytes", got, err, n*audioFrameBytes)
	}
	out := make([]int16, n)
	for i := range out {
		l := int16(binary.LittleEndian.Uint16(buf[i*audioFrameBytes:]))
		r := int16(binary.LittleEndian.Uint16(buf[i*audioFrameBytes+2:]))
		if l != r {
			t.Fatalf("frame %d: left %d != right %d", i, l, r)
		}
		out[i] = l
	}
	return out
}

func TestProbeAudioStreamRampsToNewLevel(t *testing.T) {
	s := newProbeAudioStream()
	s.SetSample(0.5)
	if s.level() != 1 {
		t.Fatalf("first reading normalized to %v, want 1", s.level())
	}
	got := readFrames(t, s, 4)
	want := []int16{8191, 16383, 24575, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ramp = %v, want %v", got, want)
		}
	}
	for i, v := range readFrames(t, s, 4) {
		if v != 32767 {
			t.Fatalf("held frame %d = %d, want 32767", i, v)
		}
	}
	if n, _ := s.Read(make([]byte, 3)); n != 0 {
		t.Fatalf("partial frame read %d bytes", n)
	}
}

func TestProbeAudioStreamRemovesDC(t *testing.T) {
	s := newProbeAudioStream()
	for i := 0; i < 20000; i++ {
		s.SetSample(0.5)
	}
	if v := s.level(); v > 0.01 || v < -0.01 {
		t.Fatalf("constant input left %v after DC removal", v)
	}
}

func TestProbeAudioStreamNormalizesQuietSignal(t *testing.T) {
	s := newProbeAudioStream()
	for i := 0; i < 200; i++ {
		v := float32(0.01)
		if i%2 == 1 {
			v = -0.01
		}
		s.SetSample(v)
	}
	if v := s.level(); v > -0.9 {
		t.Fatalf("quiet square wave played at %v, want near -1", v)
	}
}
