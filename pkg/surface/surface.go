// Package surface defines the diagram surface contract: the sink that
// renders scene frames and transient notices, and the gestures it reports
// back.
package surface

import (
	"context"
	"time"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Frame is one rendered snapshot of a structure.
type Frame struct {
	// Seq increases by one for every frame a session renders.
	Seq uint64 `json:"seq"`

	Structure string           `json:"structure"`
	Op        string           `json:"op,omitempty"`
	Caption   string           `json:"caption,omitempty"`
	Result    string           `json:"result,omitempty"`
	Nodes     []viz.VisualNode `json:"nodes"`
	Edges     []viz.VisualEdge `json:"edges"`
	Moved     []string         `json:"moved,omitempty"`

	// Step is the 1-based index of the step this frame shows, out of Total.
	// The closing frame of a playback has Step 0.
	Step  int `json:"step"`
	Total int `json:"total"`

	// Animating is false only on the closing frame, when controls re-enable.
	Animating bool `json:"animating"`
}

// Notice is a transient message about a rejected operation.
type Notice struct {
	Kind    viz.ErrorKind `json:"kind"`
	Op      string        `json:"op"`
	Message string        `json:"message"`
	Expires time.Time     `json:"expires"`
}

// Active reports whether the notice is still shown at now.
func (n Notice) Active(now time.Time) bool {
	return now.Before(n.Expires)
}

// GestureType enumerates pointer gestures on a node.
type GestureType string

// Gesture types.
const (
	GestureClick       GestureType = "click"
	GestureDrag        GestureType = "drag"
	GestureContextMenu GestureType = "contextmenu"
)

// Gesture is a pointer event on a rendered node. Pointer is where the
// pointer was released, in canvas units.
type Gesture struct {
	NodeID  string       `json:"nodeId"`
	Type    GestureType  `json:"type"`
	Pointer viz.Position `json:"pointer"`
}

// Surface renders frames and notices. Render is called from the playback
// goroutine, one frame at a time, in Seq order.
type Surface interface {
	Render(ctx context.Context, f Frame) error
	Notify(ctx context.Context, n Notice) error
}

// Multi fans frames and notices out to several surfaces, stopping at the
// first error.
type Multi []Surface

// Render implements Surface.
func (m Multi) Render(ctx context.Context, f Frame) error {
	for _, s := range m {
		err := s.Render(ctx, f)
		if err != nil {
			return err
		}
	}

	return nil
}

// Notify implements Surface.
func (m Multi) Notify(ctx context.Context, n Notice) error {
	for _, s := range m {
		err := s.Notify(ctx, n)
		if err != nil {
			return err
		}
	}

	return nil
}
