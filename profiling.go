package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// profiles records a CPU profile for the whole run and, when heapPath is
// set, a heap profile taken as the run ends.
type profiles struct {
	cpu      *os.File
	heapPath string
	once     sync.Once
	err      error
}

// startProfiles begins CPU profiling into cpuPath. Either path may be empty.
func startProfiles(cpuPath, heapPath string) (*profiles, error) {
	p := &profiles{heapPath: heapPath}
	if cpuPath == "" {
		return p, nil
	}
	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, fmt.Errorf("creating cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("starting cpu profile: %w", err)
	}
	p.cpu = f
	return p, nil
}

// Stop finishes the CPU profile and writes the heap profile. Only the first
// call does any work; later calls return the same error.
func (p *profiles) Stop() error {
	p.once.Do(func() {
		var errs []error
		if p.cpu != nil {
			pprof.StopCPUProfile()
			errs = append(errs, p.cpu.Close())
		}
		if p.heapPath != "" {
			errs = append(errs, writeHeapProfile(p.heapPath))
		}
		p.err = errors.Join(errs...)
	})
	return p.err
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating heap profile: %w", err)
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("writing heap profile: %w", err)
	}
	return nil
}
