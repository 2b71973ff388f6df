package probe

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"physviz/internal/grid"
)

type recordingSink struct{ got []float32 }

func (r *recordingSink) SetSample(v float32) { r.got = append(r.got, v) }

func fieldsWithPulse() *grid.Fields {
	f := grid.NewFields(10, 10)
	f.Ez.Set(5, 5, 2)
	f.Hx.Set(1, 1, 1)
	f.Hy.Set(9, 0, -3)
	return f
}

func TestEnergySumsAllPlanes(t *testing.T) {
	if got := Energy(fieldsWithPulse()); got != 14 {
		t.Fatalf("Energy = %v, want 14", got)
	}
	if got := Energy(grid.NewFields(4, 4)); got != 0 {
		t.Fatalf("Energy of empty grid = %v", got)
	}
}

func TestObserveSamplesProbePoint(t *testing.T) {
	p, err := New(Config{X: 0.5, Y: 0.5}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	sink := &recordingSink{}
	p.SetSink(sink)

	p.Observe(7, 0.07, fieldsWithPulse())
	got := p.Latest()
	if got.Step != 7 || got.Ez != 2 || got.Energy != 14 {
		t.Fatalf("Latest() = %+v", got)
	}
	if len(sink.got) != 1 || sink.got[0] != 2 {
		t.Fatalf("sink saw %v", sink.got)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestObserveWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	p, err := New(Config{X: 0.5, Y: 0.5, OutputDir: dir}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	f := fieldsWithPulse()
	p.Observe(1, 0.01, f)
	p.Observe(2, 0.02, f)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "probe.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("probe.csv has %d lines, want header + 2:\n%s", len(lines), data)
	}
	if lines[0] != "step,time,ez,energy" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "2,") {
		t.Fatalf("second row = %q", lines[2])
	}
}

func TestObserveLogsSummary(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{X: 0.5, Y: 0.5, LogEvery: 2}, slog.New(slog.NewTextHandler(&buf, nil)))
	if err != nil {
		t.Fatal(err)
	}
	f := fieldsWithPulse()
	p.Observe(1, 0.01, f)
	if buf.Len() != 0 {
		t.Fatal("logged before the window filled")
	}
	f.Ez.Set(5, 5, -1)
	p.Observe(2, 0.02, f)

	out := buf.String()
	for _, want := range []string{"msg=probe", "min=-1", "max=2", "avg=0.5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log %q missing %q", out, want)
		}
	}
}
