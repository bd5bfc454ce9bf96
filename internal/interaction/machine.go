package interaction

import (
	"github.com/msalah0e/ontoview/internal/geometry"
)

// Mode is the pointer state.
type Mode int

const (
	Idle Mode = iota
	Panning
	DraggingNode
)

func (m Mode) String() string {
	switch m {
	case Panning:
		return "panning"
	case DraggingNode:
		return "dragging"
	default:
		return "idle"
	}
}

// State is the interaction bookkeeping between events. NodeID is set only
// while dragging. Travel is the screen distance covered since the press.
type State struct {
	Mode   Mode           `json:"mode"`
	NodeID string         `json:"nodeId,omitempty"`
	Last   geometry.Point `json:"last"`
	Travel float64        `json:"travel"`
}

// EventKind names a pointer or wheel event.
type EventKind string

const (
	PointerDown  EventKind = "down"
	PointerMove  EventKind = "move"
	PointerUp    EventKind = "up"
	PointerLeave EventKind = "leave"
	Wheel        EventKind = "wheel"
)

// Event is one input event in screen coordinates.
type Event struct {
	Kind   EventKind `json:"kind"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	DeltaY float64   `json:"deltaY,omitempty"`
}

// Point returns the event position.
func (e Event) Point() geometry.Point {
	return geometry.Point{X: e.X, Y: e.Y}
}

// CommandKind names an effect requested by a transition.
type CommandKind string

const (
	CmdPan    CommandKind = "pan"
	CmdDrag   CommandKind = "drag"
	CmdZoom   CommandKind = "zoom"
	CmdSelect CommandKind = "select"
)

// Command is an effect to be applied by the owner of the affected state.
type Command struct {
	Kind   CommandKind    `json:"kind"`
	NodeID string         `json:"nodeId,omitempty"`
	Delta  geometry.Point `json:"delta,omitempty"`
	Wheel  float64        `json:"wheel,omitempty"`
}

// HitFunc reports which node, if any, lies under a screen point.
type HitFunc func(screen geometry.Point) (string, bool)

// DefaultClickSlop is how far the pointer may travel between press and
// release for the release to still count as a click.
const DefaultClickSlop = 2.0

// Transition computes the next state for ev. It never mutates anything;
// the returned commands describe what the caller must apply, in order.
//
// A press on a node starts a drag, anywhere else a pan. A release while
// dragging selects the node only when the pointer travelled no further than
// slop. Leaving the surface ends any gesture without selecting. Wheel
// events zoom and keep the current state.
func Transition(s State, ev Event, hit HitFunc, slop float64) (State, []Command) {
	p := ev.Point()

	switch ev.Kind {
	case PointerDown:
		// A press while active restarts the gesture.
		if hit != nil {
			if id, ok := hit(p); ok {
				return State{Mode: DraggingNode, NodeID: id, Last: p}, nil
			}
		}
		return State{Mode: Panning, Last: p}, nil

	case PointerMove:
		if s.Mode == Idle {
			return s, nil
		}
		d := p.Sub(s.Last)
		next := s
		next.Last = p
		next.Travel += d.Len()
		if d.X == 0 && d.Y == 0 {
			return next, nil
		}
		if s.Mode == Panning {
			return next, []Command{{Kind: CmdPan, Delta: d}}
		}
		return next, []Command{{Kind: CmdDrag, NodeID: s.NodeID, Delta: d}}

	case PointerUp:
		var cmds []Command
		if s.Mode == DraggingNode && s.Travel+p.Sub(s.Last).Len() <= slop {
			cmds = []Command{{Kind: CmdSelect, NodeID: s.NodeID}}
		}
		return State{Mode: Idle, Last: p}, cmds

	case PointerLeave:
		return State{Mode: Idle, Last: p}, nil

	case Wheel:
		return s, []Command{{Kind: CmdZoom, Wheel: ev.DeltaY}}
	}
	return s, nil
}
