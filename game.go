package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"physviz/internal/fdtd"
	"physviz/internal/params"
	"physviz/internal/probe"
	"physviz/internal/render"
)

// Game adapts the renderer to ebiten's update and draw loop.
type Game struct {
	renderer *render.Renderer
	engine   *fdtd.Engine
	settings *params.Settings
	probe    *probe.Probe // nil when no probe output is configured
	log      *slog.Logger

	width, height int
	debug         bool
	lastUpdate    time.Time

	// images caches one upload target per surface size.
	images map[[2]int]*ebiten.Image
}

func newGame(r *render.Renderer, engine *fdtd.Engine, settings *params.Settings, pr *probe.Probe, w, h int, logger *slog.Logger) *Game {
	return &Game{
		renderer: r,
		engine:   engine,
		settings: settings,
		probe:    pr,
		log:      logger,
		width:    w,
		height:   h,
		debug:    *debugFlag,
		images:   map[[2]int]*ebiten.Image{},
	}
}

// Update handles input and renders the next frame of the active mode. A
// halted FDTD engine keeps its last image on screen instead of ending the
// program.
func (g *Game) Update() error {
	now := time.Now()
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	dt := time.Second / time.Duration(tps)
	if !g.lastUpdate.IsZero() {
		dt = now.Sub(g.lastUpdate)
	}
	g.lastUpdate = now

	g.handleModeKeys()
	g.handleSimulationKeys()
	g.handleCameraKeys()

	err := g.renderer.Frame(context.Background(), dt)
	switch {
	case err == nil, errors.Is(err, fdtd.ErrHalted), errors.Is(err, fdtd.ErrDeviceLost):
		return nil
	default:
		return err
	}
}

// Draw uploads the active surface and scales it onto the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	surf := g.renderer.Surface()
	key := [2]int{surf.W, surf.H}
	img, ok := g.images[key]
	if !ok {
		img = ebiten.NewImage(surf.W, surf.H)
		g.images[key] = img
	}
	img.WritePixels(surf.Pix())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.width)/float64(surf.W), float64(g.height)/float64(surf.H))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(img, op)

	if g.debug {
		st := overlayState{
			Stats:  g.renderer.Context().Stats(),
			Block:  g.settings.Block(g.settings.Elapsed()),
			Steps:  g.engine.StepsPerFrame(),
			Paused: g.renderer.Paused(),
			Halted: g.engine.Halted(),
		}
		if g.probe != nil {
			latest := g.probe.Latest()
			st.Probe = &latest
		}
		ebitenutil.DebugPrint(screen, overlayText(st))
	}
}

// Layout reports the logical screen size used by Ebiten.
func (g *Game) Layout(_, _ int) (int, int) { return g.width, g.height }

// overlayState is everything the debug overlay shows.
type overlayState struct {
	Stats  render.Stats
	Block  params.Block
	Steps  int
	Paused bool
	Halted bool
	Probe  *probe.Sample
}

// overlayText formats the debug overlay.
func overlayText(st overlayState) string {
	s, o := st.Stats, st.Block
	var b strings.Builder
	fmt.Fprintf(&b, "FPS: %.1f (%.2f ms)\n", s.FPS, float64(s.Delta.Microseconds())/1000)
	fmt.Fprintf(&b, "Mode: %s  Pass: %s  %dx%d on %s\n", s.Mode, s.Pass, s.Width, s.Height, s.Device)
	fmt.Fprintf(&b, "Lambda: %.0f nm  Slits: %.0f  Steps/frame: %d\n", o.Wavelength, o.SlitCount, st.Steps)
	if angle := o.DiffractionAngle(); math.IsNaN(angle) {
		b.WriteString("Diffraction angle: none\n")
	} else {
		fmt.Fprintf(&b, "Diffraction angle: %.2f deg\n", angle)
	}
	if st.Probe != nil {
		fmt.Fprintf(&b, "Probe: ez %+.3f  energy %.3g\n", st.Probe.Ez, st.Probe.Energy)
	}
	keys := make([]string, 0, len(s.Metrics))
	for k := range s.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, s.Metrics[k])
	}
	if st.Paused {
		b.WriteString("PAUSED\n")
	}
	if st.Halted {
		b.WriteString("FDTD HALTED (I to retry)\n")
	}
	return b.String()
}
