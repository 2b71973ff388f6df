// Package config loads the application configuration: embedded defaults
// overlaid with an optional user YAML file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"physviz/internal/params"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of the visualizer.
type Config struct {
	Canvas     CanvasConfig     `yaml:"canvas"`
	Window     WindowConfig     `yaml:"window"`
	Simulation SimulationConfig `yaml:"simulation"`
	Optics     OpticsConfig     `yaml:"optics"`
	Voxel      VoxelConfig      `yaml:"voxel"`
	Probe      ProbeConfig      `yaml:"probe"`
	Audio      AudioConfig      `yaml:"audio"`
	Log        LogConfig        `yaml:"log"`
}

// CanvasConfig is the display resolution. The FDTD grid is twice as large in
// each axis.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// WindowConfig holds host window settings.
type WindowConfig struct {
	Scale int     `yaml:"scale"`
	Title string  `yaml:"title"`
	TPS   float64 `yaml:"tps"`
}

// SimulationConfig holds FDTD engine settings.
type SimulationConfig struct {
	Mode          string        `yaml:"mode"`
	Backend       string        `yaml:"backend"`
	Courant       float32       `yaml:"courant"`
	TimeStep      float32       `yaml:"time_step"`
	StepsPerFrame int           `yaml:"steps_per_frame"`
	NMPerCell     float32       `yaml:"nm_per_cell"`
	VisualGain    float32       `yaml:"visual_gain"`
	Workers       int           `yaml:"workers"`
	Source        SourceConfig  `yaml:"source"`
	Barrier       BarrierConfig `yaml:"barrier"`
}

// SourceConfig places the driven source as fractions of the grid.
type SourceConfig struct {
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Radius    int     `yaml:"radius"`
	Amplitude float32 `yaml:"amplitude"`
}

// BarrierConfig places the optional grating wall.
type BarrierConfig struct {
	Enabled   bool    `yaml:"enabled"`
	X         float64 `yaml:"x"`
	Thickness int     `yaml:"thickness"`
}

// OpticsConfig holds the initial slider values.
type OpticsConfig struct {
	WavelengthNM float32 `yaml:"wavelength_nm"`
	SlitWidthMM  float32 `yaml:"slit_width_mm"`
	GrateWidthMM float32 `yaml:"grate_width_mm"`
	SlitCount    float32 `yaml:"slit_count"`
	ScreenSize   float32 `yaml:"screen_size"`
}

// VoxelConfig controls terrain generation.
type VoxelConfig struct {
	MapSize     int     `yaml:"map_size"`
	Seed        int64   `yaml:"seed"`
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Frequency   float64 `yaml:"frequency"`
	WaterLevel  float64 `yaml:"water_level"`
}

// ProbeConfig places the field probe.
type ProbeConfig struct {
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	LogEvery  int     `yaml:"log_every"`
	OutputDir string  `yaml:"output_dir"`
}

// AudioConfig toggles playback of the probe signal.
type AudioConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads the embedded defaults and overlays the file at path when path
// is non-empty. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	fraction := func(v float64) bool { return v >= 0 && v <= 1 }

	check(c.Canvas.Width > 0 && c.Canvas.Height > 0, "canvas: size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	check(c.Window.Scale > 0, "window.scale: %d must be positive", c.Window.Scale)
	check(c.Window.TPS > 0, "window.tps: %v must be positive", c.Window.TPS)

	s := c.Simulation
	if _, err := params.ParseMode(s.Mode); err != nil {
		errs = append(errs, fmt.Errorf("simulation.mode: %w", err))
	}
	switch strings.ToLower(s.Backend) {
	case "cpu", "opencl", "gpu", "auto":
	default:
		errs = append(errs, fmt.Errorf("simulation.backend: unknown backend %q", s.Backend))
	}
	check(s.Courant > 0, "simulation.courant: %v must be positive", s.Courant)
	check(s.TimeStep > 0, "simulation.time_step: %v must be positive", s.TimeStep)
	check(s.StepsPerFrame >= 1, "simulation.steps_per_frame: %d must be at least 1", s.StepsPerFrame)
	check(s.NMPerCell > 0, "simulation.nm_per_cell: %v must be positive", s.NMPerCell)
	check(s.Workers >= 0, "simulation.workers: %d must not be negative", s.Workers)
	check(fraction(s.Source.X) && fraction(s.Source.Y), "simulation.source: (%v, %v) must lie in [0, 1]", s.Source.X, s.Source.Y)
	check(s.Source.Amplitude != 0, "simulation.source.amplitude: must not be zero")
	check(s.Source.Radius >= 0, "simulation.source.radius: %d must not be negative", s.Source.Radius)
	check(fraction(s.Barrier.X), "simulation.barrier.x: %v must lie in [0, 1]", s.Barrier.X)

	o := c.Optics
	check(o.WavelengthNM > 0, "optics.wavelength_nm: %v must be positive", o.WavelengthNM)
	check(o.SlitCount >= 0, "optics.slit_count: %v must not be negative", o.SlitCount)
	check(o.ScreenSize > 0, "optics.screen_size: %v must be positive", o.ScreenSize)

	check(c.Voxel.MapSize > 0, "voxel.map_size: %d must be positive", c.Voxel.MapSize)
	check(fraction(c.Probe.X) && fraction(c.Probe.Y), "probe: (%v, %v) must lie in [0, 1]", c.Probe.X, c.Probe.Y)
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ProbeEnabled reports whether anything consumes probe samples: periodic
// logging, the CSV file or audio playback.
func (c *Config) ProbeEnabled() bool {
	return c.Probe.LogEvery > 0 || c.Probe.OutputDir != "" || c.Audio.Enabled
}

// InitialOptics converts the optics section into slider values.
func (c *Config) InitialOptics() params.Optics {
	return params.Optics{
		Wavelength: c.Optics.WavelengthNM,
		SlitWidth:  c.Optics.SlitWidthMM,
		GrateWidth: c.Optics.GrateWidthMM,
		SlitCount:  c.Optics.SlitCount,
		ScreenSize: c.Optics.ScreenSize,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
