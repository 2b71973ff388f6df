// Package probe samples the FDTD fields after each stepping frame: Ez at one
// point plus the total field energy. Samples are logged periodically,
// optionally written to CSV and forwarded to a sink such as an audio stream.
package probe

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/blas/blas32"

	"physviz/internal/grid"
)

// Config places the probe and controls its outputs.
type Config struct {
	// X and Y are fractions of the grid width and height.
	X, Y float64
	// LogEvery is the number of samples per summary log line. Zero disables
	// logging.
	LogEvery int
	// OutputDir receives probe.csv when set.
	OutputDir string
}

// Sample is one probe reading.
type Sample struct {
	Step   int64   `csv:"step"`
	Time   float32 `csv:"time"`
	Ez     float32 `csv:"ez"`
	Energy float32 `csv:"energy"`
}

// Sink receives the latest Ez reading.
type Sink interface {
	SetSample(v float32)
}

type window struct {
	min, max, sum float32
	count         int
}

func (w *window) add(v float32) {
	if w.count == 0 || v < w.min {
		w.min = v
	}
	if w.count == 0 || v > w.max {
		w.max = v
	}
	w.sum += v
	w.count++
}

// Probe implements fdtd.Observer.
type Probe struct {
	mu     sync.Mutex
	cfg    Config
	log    *slog.Logger
	sink   Sink
	latest Sample
	win    window

	out           *os.File
	headerWritten bool
}

// New creates a probe. When cfg.OutputDir is set the directory is created
// and probe.csv truncated.
func New(cfg Config, logger *slog.Logger) (*Probe, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Probe{cfg: cfg, log: logger}
	if cfg.OutputDir == "" {
		return p, nil
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating probe output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(cfg.OutputDir, "probe.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating probe.csv: %w", err)
	}
	p.out = f
	return p, nil
}

// SetSink installs the receiver of each new Ez reading.
func (p *Probe) SetSink(s Sink) {
	p.mu.Lock()
	p.sink = s
	p.mu.Unlock()
}

// Observe records one sample from f.
func (p *Probe) Observe(step int64, elapsed float32, f *grid.Fields) {
	x := grid.ClampCoord(int(math.Round(p.cfg.X*float64(f.W))), 0, f.W-1)
	y := grid.ClampCoord(int(math.Round(p.cfg.Y*float64(f.H))), 0, f.H-1)
	s := Sample{
		Step:   step,
		Time:   elapsed,
		Ez:     f.Ez.At(x, y),
		Energy: Energy(f),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = s
	if p.sink != nil {
		p.sink.SetSample(s.Ez)
	}
	if p.out != nil {
		if err := p.writeLocked(s); err != nil {
			p.log.Error("probe output failed; disabling CSV", "error", err)
			p.out.Close()
			p.out = nil
		}
	}
	if p.cfg.LogEvery > 0 {
		p.win.add(s.Ez)
		if p.win.count >= p.cfg.LogEvery {
			p.log.Info("probe",
				"step", s.Step,
				"min", p.win.min,
				"max", p.win.max,
				"avg", p.win.sum/float32(p.win.count),
				"energy", s.Energy)
			p.win = window{}
		}
	}
}

func (p *Probe) writeLocked(s Sample) error {
	records := []Sample{s}
	if !p.headerWritten {
		if err := gocsv.Marshal(records, p.out); err != nil {
			return fmt.Errorf("writing probe sample: %w", err)
		}
		p.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, p.out); err != nil {
		return fmt.Errorf("writing probe sample: %w", err)
	}
	return nil
}

// Latest returns the most recent sample.
func (p *Probe) Latest() Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Close flushes and closes the CSV output.
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return nil
	}
	err := p.out.Close()
	p.out = nil
	return err
}

// Energy returns Σ(Ez² + Hx² + Hy²) over the grid.
func Energy(f *grid.Fields) float32 {
	var total float32
	for _, plane := range []*grid.Plane{f.Ez, f.Hx, f.Hy} {
		cells := plane.Cells()
		v := blas32.Vector{N: len(cells), Data: cells, Inc: 1}
		total += blas32.Dot(v, v)
	}
	return total
}
