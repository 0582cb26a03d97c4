// Package d3json renders frames and notices as newline-delimited JSON
// documents in the node/link form D3 force and tree layouts consume.
// Every document can be checked against an embedded JSON schema.
package d3json

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/dsviz/pkg/surface"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

//go:embed frame.schema.json
var schemaJSON []byte

// ErrInvalidDocument is returned when a document does not match the schema.
var ErrInvalidDocument = errors.New("d3json: document does not match schema")

var compiled = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Palette is the fill color per highlight state.
var Palette = map[viz.HighlightState]string{
	viz.StateDefault:   "#e0e0e0",
	viz.StateVisiting:  "#ffd54f",
	viz.StateComparing: "#ffb74d",
	viz.StatePath:      "#90caf9",
	viz.StateFound:     "#66bb6a",
	viz.StateNotFound:  "#ef5350",
	viz.StateInserted:  "#26a69a",
	viz.StateDeleting:  "#e53935",
	viz.StateRotating:  "#ab47bc",
	viz.StateSplitting: "#7e57c2",
	viz.StateMerging:   "#5c6bc0",
	viz.StateRecolored: "#8d6e63",
	viz.StateUpdated:   "#29b6f6",
}

// Node is a D3 node.
type Node struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Group     string             `json:"group,omitempty"`
	Detail    string             `json:"detail,omitempty"`
	Tone      viz.Tone           `json:"tone,omitempty"`
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
	Width     float64            `json:"width"`
	State     viz.HighlightState `json:"state"`
	FillColor string             `json:"fillColor"`
}

// Link is a D3 link between node ids.
type Link struct {
	ID     string             `json:"id"`
	Source string             `json:"source"`
	Target string             `json:"target"`
	Label  string             `json:"label,omitempty"`
	State  viz.HighlightState `json:"state"`
	OnPath bool               `json:"onPath,omitempty"`
}

// FrameDoc is the document written for a frame.
type FrameDoc struct {
	Type      string   `json:"type"`
	Seq       uint64   `json:"seq"`
	Structure string   `json:"structure"`
	Op        string   `json:"op,omitempty"`
	Caption   string   `json:"caption,omitempty"`
	Result    string   `json:"result,omitempty"`
	Step      int      `json:"step"`
	Total     int      `json:"total"`
	Animating bool     `json:"animating"`
	Nodes     []Node   `json:"nodes"`
	Links     []Link   `json:"links"`
	Moved     []string `json:"moved,omitempty"`
}

// NoticeDoc is the document written for a notice.
type NoticeDoc struct {
	Type    string        `json:"type"`
	Kind    viz.ErrorKind `json:"kind"`
	Op      string        `json:"op"`
	Message string        `json:"message"`
	Expires time.Time     `json:"expires"`
}

// FromFrame converts f.
func FromFrame(f surface.Frame) FrameDoc {
	d := FrameDoc{
		Type: "frame", Seq: f.Seq, Structure: f.Structure, Op: f.Op, Caption: f.Caption, Result: f.Result,
		Step: f.Step, Total: f.Total, Animating: f.Animating, Moved: f.Moved,
		Nodes: make([]Node, len(f.Nodes)), Links: make([]Link, len(f.Edges)),
	}

	for i, n := range f.Nodes {
		d.Nodes[i] = Node{
			ID: n.ID, Label: n.Label, Group: n.Group, Detail: n.Detail, Tone: n.Tone,
			X: n.Pos.X, Y: n.Pos.Y, Width: n.Width, State: n.State, FillColor: Palette[n.State],
		}
	}

	for i, e := range f.Edges {
		d.Links[i] = Link{
			ID: e.ID, Source: e.From, Target: e.To, Label: e.Label,
			State: e.State, OnPath: e.State == viz.StatePath,
		}
	}

	return d
}

// FromNotice converts n.
func FromNotice(n surface.Notice) NoticeDoc {
	return NoticeDoc{Type: "notice", Kind: n.Kind, Op: n.Op, Message: n.Message, Expires: n.Expires}
}

// Validate checks one encoded document against the schema.
func Validate(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}

// Schema returns the embedded JSON schema.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// Option configures a Surface.
type Option func(*Surface)

// WithValidation checks every document before it is written.
func WithValidation() Option {
	return func(s *Surface) { s.validate = true }
}

// Surface writes one JSON document per line to w.
type Surface struct {
	mu       sync.Mutex
	w        io.Writer
	validate bool
}

// New returns a surface writing to w.
func New(w io.Writer, opts ...Option) *Surface {
	s := &Surface{w: w}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Render implements surface.Surface.
func (s *Surface) Render(_ context.Context, f surface.Frame) error {
	return s.write("frame", FromFrame(f))
}

// Notify implements surface.Surface.
func (s *Surface) Notify(_ context.Context, n surface.Notice) error {
	return s.write("notice", FromNotice(n))
}

func (s *Surface) write(kind string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	if s.validate {
		err = Validate(data)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.w.Write(append(data, '\n'))
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}

	return nil
}
