// Package viz defines the data model shared by every structure engine: the
// visual projection of logical nodes, the animation steps an operation emits,
// the structural shapes handed to the layout engine, and the error taxonomy
// reported at operation boundaries.
//
// Engines own their logical state exclusively. Everything in this package is
// an immutable record derived from that state: the layout engine and the
// diagram surface read these records and never write back.
package viz

import "math"

// HighlightState is the visual emphasis applied to a node while an operation plays.
type HighlightState string

// Highlight states.
const (
	StateDefault   HighlightState = "default"
	StateVisiting  HighlightState = "visiting"
	StateComparing HighlightState = "comparing"
	StatePath      HighlightState = "path"
	StateFound     HighlightState = "found"
	StateNotFound  HighlightState = "notfound"
	StateInserted  HighlightState = "inserted"
	StateDeleting  HighlightState = "deleting"
	StateRotating  HighlightState = "rotating"
	StateSplitting HighlightState = "splitting"
	StateMerging   HighlightState = "merging"
	StateRecolored HighlightState = "recolored"
	StateUpdated   HighlightState = "updated"
)

// States lists every highlight state in display order.
func States() []HighlightState {
	return []HighlightState{
		StateDefault, StateVisiting, StateComparing, StatePath, StateFound, StateNotFound,
		StateInserted, StateDeleting, StateRotating, StateSplitting, StateMerging,
		StateRecolored, StateUpdated,
	}
}

// Position is a point on the diagram canvas in logical units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the euclidean distance between p and q.
func (p Position) Dist(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// VisualNode is the rendered projection of one logical node.
type VisualNode struct {
	ID     string         `json:"id"`
	Group  string         `json:"group,omitempty"` // Logical node a tower cell belongs to (skip list levels).
	Label  string         `json:"label"`
	Detail string         `json:"detail,omitempty"`
	Tone   Tone           `json:"tone,omitempty"`
	Pos    Position       `json:"pos"`
	Width  float64        `json:"width"`
	State  HighlightState `json:"state"`
}

// VisualEdge is a rendered parent->child or predecessor->successor connection.
type VisualEdge struct {
	ID    string         `json:"id"`
	From  string         `json:"from"`
	To    string         `json:"to"`
	Label string         `json:"label,omitempty"`
	State HighlightState `json:"state"`
}

// Scene is a complete node and edge snapshot ready for a diagram surface.
type Scene struct {
	Nodes []VisualNode `json:"nodes"`
	Edges []VisualEdge `json:"edges"`

	// Moved holds the ids whose position changed relative to the previous scene.
	Moved []string `json:"moved,omitempty"`
}

// Positions indexes node positions by id.
func (s Scene) Positions() map[string]Position {
	out := make(map[string]Position, len(s.Nodes))
	for _, n := range s.Nodes {
		out[n.ID] = n.Pos
	}

	return out
}

// Node returns the node with the given id.
func (s Scene) Node(id string) (VisualNode, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return VisualNode{}, false
}
