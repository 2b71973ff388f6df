package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"physviz/internal/compute"
	"physviz/internal/config"
	"physviz/internal/fdtd"
	"physviz/internal/grid"
	"physviz/internal/optics"
	"physviz/internal/params"
	"physviz/internal/probe"
	"physviz/internal/render"
	"physviz/internal/voxel"
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPathFlag)
	if err == nil {
		err = applyFlags(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "physviz: %v\n", err)
		os.Exit(2)
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if *writeConfigFlag != "" {
		if err := cfg.WriteYAML(*writeConfigFlag); err != nil {
			logger.Error("writing configuration", "error", err)
			os.Exit(1)
		}
		logger.Info("configuration written", "path", *writeConfigFlag)
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("physviz stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(c config.LogConfig) *slog.Logger {
	level, _ := c.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if c.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	prof, err := startProfiles(*cpuProfileFlag, *memProfileFlag)
	if err != nil {
		return err
	}
	defer func() {
		if err := prof.Stop(); err != nil {
			logger.Warn("profiling", "error", err)
		}
	}()

	sim := cfg.Simulation
	mode, err := params.ParseMode(sim.Mode)
	if err != nil {
		return err
	}
	pool := compute.NewPool(sim.Workers)

	// The engine reads the fields back every frame while an observer is
	// installed, so the probe only runs when something consumes its samples.
	var (
		pr       *probe.Probe
		observer fdtd.Observer
	)
	if cfg.ProbeEnabled() {
		pr, err = probe.New(probe.Config{
			X:         cfg.Probe.X,
			Y:         cfg.Probe.Y,
			LogEvery:  cfg.Probe.LogEvery,
			OutputDir: cfg.Probe.OutputDir,
		}, logger.With("component", "probe"))
		if err != nil {
			return err
		}
		defer pr.Close()
		observer = pr
	}

	factory, err := fdtd.FactoryFor(sim.Backend)
	if err != nil {
		return err
	}
	fieldW, fieldH := grid.FieldSize(cfg.Canvas.Width, cfg.Canvas.Height)
	engine, err := fdtd.New(fdtd.Options{
		Width:         fieldW,
		Height:        fieldH,
		Courant:       sim.Courant,
		TimeStep:      sim.TimeStep,
		NMPerCell:     sim.NMPerCell,
		StepsPerFrame: sim.StepsPerFrame,
		Gain:          sim.VisualGain,
		Workers:       pool.Workers(),
		Source: fdtd.SourceConfig{
			X:         sim.Source.X,
			Y:         sim.Source.Y,
			Radius:    sim.Source.Radius,
			Amplitude: sim.Source.Amplitude,
		},
		Barrier: fdtd.BarrierConfig{
			Enabled:   sim.Barrier.Enabled,
			X:         sim.Barrier.X,
			Thickness: sim.Barrier.Thickness,
		},
		Logger:   logger.With("component", "fdtd"),
		Observer: observer,
	}, factory)
	if err != nil {
		return err
	}
	defer engine.Close()

	if cfg.Audio.Enabled && pr != nil {
		stream := newProbeAudioStream()
		player, err := audio.NewContext(audioSampleRate).NewPlayer(stream)
		if err != nil {
			return fmt.Errorf("creating audio player: %w", err)
		}
		player.Play()
		pr.SetSink(stream)
		logger.Info("probe audio enabled", "sampleRate", audioSampleRate)
	}

	vc := cfg.Voxel
	terrain := voxel.Generate(voxel.TerrainConfig{
		Size:        vc.MapSize,
		Seed:        vc.Seed,
		Octaves:     vc.Octaves,
		Persistence: vc.Persistence,
		Frequency:   vc.Frequency,
		WaterLevel:  vc.WaterLevel,
	}, pool)
	camera := params.DefaultCamera()
	camera.MapSize = float64(vc.MapSize)
	camera.X, camera.Y = camera.MapSize/2, camera.MapSize/2

	settings := params.NewSettings(mode, cfg.InitialOptics(), camera)
	renderer := render.New(render.Options{
		Settings: settings,
		Engine:   engine,
		Grating:  optics.NewGrating(cfg.Canvas.Width, cfg.Canvas.Height, pool),
		Voxel:    voxel.NewRenderer(cfg.Canvas.Width, cfg.Canvas.Height, terrain, pool),
		Logger:   logger.With("component", "render"),
	})

	ebiten.SetWindowSize(cfg.Canvas.Width*cfg.Window.Scale, cfg.Canvas.Height*cfg.Window.Scale)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetTPS(int(cfg.Window.TPS))
	logger.Info("starting",
		"mode", mode,
		"canvas", fmt.Sprintf("%dx%d", cfg.Canvas.Width, cfg.Canvas.Height),
		"device", engine.DeviceName(),
		"workers", pool.Workers(),
		"probe", pr != nil)

	g := newGame(renderer, engine, settings, pr, cfg.Canvas.Width, cfg.Canvas.Height, logger)
	return ebiten.RunGame(g)
}
