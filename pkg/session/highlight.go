package session

import (
	"slices"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// trail reports states that leave a path behind when the next step arrives.
func trail(st viz.HighlightState) bool {
	return st == viz.StateVisiting || st == viz.StateComparing
}

// highlight applies one step to scene in place. A target matches a node by id
// or by group, so naming a skip-list column lights its whole tower. Nodes
// still visiting or comparing from earlier steps fall back to path. An edge
// is on the path when both of its ends are highlighted.
func highlight(scene *viz.Scene, step viz.Step) {
	for i := range scene.Nodes {
		n := &scene.Nodes[i]

		if slices.Contains(step.Targets, n.ID) || (n.Group != "" && slices.Contains(step.Targets, n.Group)) {
			n.State = step.State

			continue
		}

		if trail(n.State) {
			n.State = viz.StatePath
		}
	}

	states := make(map[string]viz.HighlightState, len(scene.Nodes))
	for _, n := range scene.Nodes {
		states[n.ID] = n.State
	}

	for i := range scene.Edges {
		e := &scene.Edges[i]
		if states[e.From] != viz.StateDefault && states[e.To] != viz.StateDefault {
			e.State = viz.StatePath
		} else {
			e.State = viz.StateDefault
		}
	}
}

// carry copies node states from prev onto a freshly laid out scene.
func carry(scene *viz.Scene, prev viz.Scene) {
	states := make(map[string]viz.HighlightState, len(prev.Nodes))
	for _, n := range prev.Nodes {
		states[n.ID] = n.State
	}

	for i := range scene.Nodes {
		if st, ok := states[scene.Nodes[i].ID]; ok {
			scene.Nodes[i].State = st
		}
	}
}
