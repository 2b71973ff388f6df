package render

import (
	"maps"
	"sync"
	"time"

	"physviz/internal/params"
)

const fpsWindow = 500 * time.Millisecond

// Stats is a point-in-time copy of the render context for display.
type Stats struct {
	Frames  int64
	Delta   time.Duration
	FPS     float64
	Mode    params.Mode
	Pass    string
	Width   int
	Height  int
	Device  string
	Metrics map[string]string
}

// Context tracks frame timing and what the last frame rendered.
type Context struct {
	mu         sync.Mutex
	stats      Stats
	fpsElapsed time.Duration
	fpsFrames  int
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{stats: Stats{Metrics: map[string]string{}}}
}

// Update records one frame that took dt. FPS is recomputed every half
// second from the frames seen in that window.
func (c *Context) Update(dt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Delta = dt
	c.stats.Frames++
	c.fpsFrames++
	c.fpsElapsed += dt
	if c.fpsElapsed >= fpsWindow {
		c.stats.FPS = float64(c.fpsFrames) / c.fpsElapsed.Seconds()
		c.fpsFrames = 0
		c.fpsElapsed = 0
	}
}

func (c *Context) setFrame(mode params.Mode, pass string, w, h int, device string) {
	c.mu.Lock()
	c.stats.Mode = mode
	c.stats.Pass = pass
	c.stats.Width, c.stats.Height = w, h
	c.stats.Device = device
	c.mu.Unlock()
}

// SetMetric stores a free-form value shown alongside the stats.
func (c *Context) SetMetric(key, value string) {
	c.mu.Lock()
	c.stats.Metrics[key] = value
	c.mu.Unlock()
}

// Stats returns a copy of the current values.
func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Metrics = maps.Clone(c.stats.Metrics)
	return s
}
