package interaction

import (
	"sync"

	"github.com/msalah0e/ontoview/internal/geometry"
	"github.com/msalah0e/ontoview/internal/layout"
	"github.com/msalah0e/ontoview/internal/viewport"
	"go.uber.org/zap"
)

// Config tunes pointer handling.
type Config struct {
	ClickSlop float64 `toml:"click_slop" validate:"gte=0"`
}

// DefaultConfig returns the stock click slop.
func DefaultConfig() Config {
	return Config{ClickSlop: DefaultClickSlop}
}

// Controller feeds events through Transition and applies the resulting
// commands to the layout and viewport owners.
type Controller struct {
	mu     sync.Mutex
	layout *layout.Engine
	view   *viewport.Controller
	cfg    Config
	state  State
	log    *zap.Logger
}

// NewController wires a controller to its state owners.
func NewController(l *layout.Engine, v *viewport.Controller, cfg Config, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{layout: l, view: v, cfg: cfg, log: log}
}

// HitTest maps a screen point through the inverse viewport transform and
// returns the topmost node under it.
func (c *Controller) HitTest(screen geometry.Point) (string, bool) {
	world := c.view.Transform().Invert(screen)
	return c.layout.HitTest(world)
}

// Handle applies one event and returns the commands it produced. Select
// commands are returned for the caller to act on; all others have already
// been applied.
func (c *Controller) Handle(ev Event) []Command {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state.Mode
	next, cmds := Transition(c.state, ev, c.HitTest, c.cfg.ClickSlop)
	c.state = next

	for _, cmd := range cmds {
		switch cmd.Kind {
		case CmdPan:
			c.view.PanBy(cmd.Delta)
		case CmdDrag:
			c.layout.DragNode(cmd.NodeID, cmd.Delta, c.view.State().Zoom)
		case CmdZoom:
			c.view.ZoomBy(cmd.Wheel)
		}
	}

	if prev != next.Mode {
		c.log.Debug("interaction mode changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", next.Mode),
			zap.String("node", next.NodeID))
	}
	return cmds
}

// State returns the current interaction state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset drops any gesture in progress.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()
}
