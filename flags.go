package main

import (
	"flag"

	"physviz/internal/config"
)

// Command-line flags. Each one overrides the matching setting from the
// configuration file when it is given.
var (
	// configPathFlag points at a YAML file overlaid on the embedded defaults.
	configPathFlag = flag.String("config", "", "path to a YAML configuration file")

	// modeFlag selects the starting render mode.
	modeFlag = flag.String("mode", "", "starting mode: wave, fdtd or voxelspace")

	// backendFlag selects the FDTD compute backend.
	backendFlag = flag.String("backend", "", "fdtd backend: cpu, opencl or auto")

	// stepsFlag sets the FDTD sub-steps per frame.
	stepsFlag = flag.Int("steps", 0, "fdtd sub-steps per frame")

	// debugFlag enables the FPS and simulation overlay.
	debugFlag = flag.Bool("debug", false, "show FPS and simulation overlay")

	// enableAudioFlag plays the probe signal through the audio device.
	enableAudioFlag = flag.Bool("enable-audio", false, "play the probe signal as audio")

	probeOutFlag = flag.String("probe-out", "", "directory receiving probe.csv")

	// cpuProfileFlag writes a CPU profile for the whole run.
	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to this file")

	// memProfileFlag writes a heap profile when the window closes.
	memProfileFlag = flag.String("memprofile", "", "write a heap profile to this file on exit")

	// writeConfigFlag dumps the effective configuration and exits.
	writeConfigFlag = flag.String("write-config", "", "write the effective configuration as YAML and exit")

	logJSONFlag = flag.Bool("log-json", false, "emit JSON log lines")
)

// applyFlags copies explicitly set flags over the loaded configuration and
// validates the result.
func applyFlags(cfg *config.Config) error {
	if *modeFlag != "" {
		cfg.Simulation.Mode = *modeFlag
	}
	if *backendFlag != "" {
		cfg.Simulation.Backend = *backendFlag
	}
	if *stepsFlag != 0 {
		cfg.Simulation.StepsPerFrame = *stepsFlag
	}
	if *enableAudioFlag {
		cfg.Audio.Enabled = true
	}
	if *probeOutFlag != "" {
		cfg.Probe.OutputDir = *probeOutFlag
	}
	if *logJSONFlag {
		cfg.Log.JSON = true
	}
	return cfg.Validate()
}
