package viewport

import (
	"fmt"
	"math"
	"sync"

	"github.com/msalah0e/ontoview/internal/geometry"
)

// Config bounds and steps the zoom.
type Config struct {
	MinZoom float64 `toml:"min_zoom" validate:"gt=0"`
	MaxZoom float64 `toml:"max_zoom" validate:"gtefield=MinZoom"`
	ZoomIn  float64 `toml:"zoom_in" validate:"gt=1"`
	ZoomOut float64 `toml:"zoom_out" validate:"gt=0,lt=1"`
}

// DefaultConfig returns the stock zoom range [0.5, 3] with 10% steps.
func DefaultConfig() Config {
	return Config{MinZoom: 0.5, MaxZoom: 3, ZoomIn: 1.1, ZoomOut: 0.9}
}

// State is the camera: screen = Pan + Zoom * world.
type State struct {
	Zoom float64        `json:"zoom"`
	Pan  geometry.Point `json:"pan"`
}

// Initial returns the state a new diagram starts with.
func Initial() State {
	return State{Zoom: 1}
}

// ZoomBy applies one wheel step. A positive delta zooms out, a negative one
// zooms in and zero changes nothing. The result is clamped to the
// configured range. Zoom is anchored at the world origin.
func ZoomBy(s State, delta float64, c Config) State {
	switch {
	case delta > 0:
		s.Zoom *= c.ZoomOut
	case delta < 0:
		s.Zoom *= c.ZoomIn
	default:
		return s
	}
	s.Zoom = math.Min(c.MaxZoom, math.Max(c.MinZoom, s.Zoom))
	return s
}

// PanBy accumulates a screen-space delta scaled by the inverse zoom.
func PanBy(s State, d geometry.Point) State {
	if s.Zoom <= 0 {
		return s
	}
	s.Pan = s.Pan.Add(d.Scale(1 / s.Zoom))
	return s
}

// Transform returns translate(Pan) * scale(Zoom).
func (s State) Transform() Transform {
	return Transform{Scale: s.Zoom, Translate: s.Pan}
}

// Transform maps world coordinates to screen coordinates.
type Transform struct {
	Scale     float64        `json:"scale"`
	Translate geometry.Point `json:"translate"`
}

// Apply maps a world point to the screen.
func (t Transform) Apply(p geometry.Point) geometry.Point {
	return t.Translate.Add(p.Scale(t.Scale))
}

// Invert maps a screen point back to world space.
func (t Transform) Invert(p geometry.Point) geometry.Point {
	if t.Scale == 0 {
		return p.Sub(t.Translate)
	}
	return p.Sub(t.Translate).Scale(1 / t.Scale)
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() Transform {
	if t.Scale == 0 {
		return Transform{Scale: 1, Translate: t.Translate.Scale(-1)}
	}
	return Transform{Scale: 1 / t.Scale, Translate: t.Translate.Scale(-1 / t.Scale)}
}

// SVG renders t as an SVG transform attribute value.
func (t Transform) SVG() string {
	return fmt.Sprintf("translate(%g %g) scale(%g)", t.Translate.X, t.Translate.Y, t.Scale)
}

// Controller owns the viewport state for one session.
type Controller struct {
	mu    sync.RWMutex
	cfg   Config
	state State
}

// NewController creates a controller at zoom 1 with no pan.
func NewController(c Config) *Controller {
	return &Controller{cfg: c, state: Initial()}
}

// ZoomBy applies a wheel step and returns the new state.
func (v *Controller) ZoomBy(delta float64) State {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = ZoomBy(v.state, delta, v.cfg)
	return v.state
}

// PanBy applies a screen-space pan and returns the new state.
func (v *Controller) PanBy(d geometry.Point) State {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = PanBy(v.state, d)
	return v.state
}

// Reset returns to the initial state.
func (v *Controller) Reset() {
	v.mu.Lock()
	v.state = Initial()
	v.mu.Unlock()
}

// State returns the current state.
func (v *Controller) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Transform returns the current world-to-screen transform.
func (v *Controller) Transform() Transform {
	return v.State().Transform()
}
