// Package echarts renders frames as standalone HTML pages holding an ECharts
// graph series. Nodes keep the positions the layout engine assigned, so
// consecutive pages line up like the frames of an animation.
package echarts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/dsviz/pkg/surface"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

const (
	chartWidth   = "1000px"
	chartHeight  = "640px"
	symbolSize   = 36
	edgeWidth    = 2
	labelSize    = 12
	defaultColor = "#b0bec5"
)

// Colors is the node color per highlight state.
var Colors = map[viz.HighlightState]string{
	viz.StateDefault:   "#b0bec5",
	viz.StateVisiting:  "#fdd835",
	viz.StateComparing: "#fb8c00",
	viz.StatePath:      "#42a5f5",
	viz.StateFound:     "#43a047",
	viz.StateNotFound:  "#e53935",
	viz.StateInserted:  "#00897b",
	viz.StateDeleting:  "#c62828",
	viz.StateRotating:  "#8e24aa",
	viz.StateSplitting: "#5e35b1",
	viz.StateMerging:   "#3949ab",
	viz.StateRecolored: "#6d4c41",
	viz.StateUpdated:   "#039be5",
}

var tones = map[viz.Tone]string{
	viz.ToneRed:   "#d32f2f",
	viz.ToneBlack: "#212121",
	viz.ToneMuted: "#eceff1",
}

func color(st viz.HighlightState) string {
	if c, ok := Colors[st]; ok {
		return c
	}

	return defaultColor
}

// Chart builds the graph chart of f. A notice, when given, becomes the subtitle.
func Chart(f surface.Frame, notice *surface.Notice) *charts.Graph {
	names := nodeNames(f.Nodes)

	nodes := make([]opts.GraphNode, len(f.Nodes))
	for i, n := range f.Nodes {
		style := &opts.ItemStyle{Color: color(n.State)}
		if n.State == viz.StateDefault && n.Tone != viz.ToneNone {
			style.Color = tones[n.Tone]
		}

		nodes[i] = opts.GraphNode{
			Name:       names[n.ID],
			X:          float32(n.Pos.X),
			Y:          float32(n.Pos.Y),
			Fixed:      opts.Bool(true),
			SymbolSize: symbolSize,
			ItemStyle:  style,
		}
	}

	links := make([]opts.GraphLink, 0, len(f.Edges))
	for _, e := range f.Edges {
		links = append(links, opts.GraphLink{
			Source:    names[e.From],
			Target:    names[e.To],
			LineStyle: &opts.LineStyle{Color: color(e.State), Width: edgeWidth},
		})
	}

	title := opts.Title{Title: fmt.Sprintf("%s %s", f.Structure, f.Op), Subtitle: f.Caption}
	if f.Total > 0 && f.Step > 0 {
		title.Title = fmt.Sprintf("%s (%d/%d)", title.Title, f.Step, f.Total)
	}

	if notice != nil {
		title.Subtitle = notice.Message
	}

	g := charts.NewGraph()
	g.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s #%d", f.Structure, f.Seq), Width: chartWidth, Height: chartHeight,
		}),
		charts.WithTitleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	g.AddSeries(f.Structure, nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{Layout: "none", Roam: opts.Bool(true)}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "inside", FontSize: labelSize}),
	)

	return g
}

// nodeNames maps ids to series names. ECharts identifies graph nodes by
// name, so repeated labels are qualified with their id.
func nodeNames(nodes []viz.VisualNode) map[string]string {
	count := make(map[string]int, len(nodes))
	for _, n := range nodes {
		count[n.Label]++
	}

	out := make(map[string]string, len(nodes))

	for _, n := range nodes {
		switch {
		case n.Label == "":
			out[n.ID] = n.ID
		case count[n.Label] > 1:
			out[n.ID] = fmt.Sprintf("%s (%s)", n.Label, n.ID)
		default:
			out[n.ID] = n.Label
		}
	}

	return out
}

// Opener returns the writer for the page of frame seq.
type Opener func(seq uint64) (io.WriteCloser, error)

// DirOpener writes frame-00001.html and so on into dir.
func DirOpener(dir string) Opener {
	return func(seq uint64) (io.WriteCloser, error) {
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("frame-%05d.html", seq)))
		if err != nil {
			return nil, fmt.Errorf("create page: %w", err)
		}

		return f, nil
	}
}

// Surface renders one HTML page per frame. The latest notice is shown on the
// pages rendered while it is active.
type Surface struct {
	mu     sync.Mutex
	open   Opener
	notice *surface.Notice
	now    func() time.Time
}

// Option configures a Surface.
type Option func(*Surface)

// WithClock replaces time.Now for notice expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Surface) { s.now = now }
}

// New returns a surface writing pages through open.
func New(open Opener, opts ...Option) *Surface {
	s := &Surface{open: open, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Render implements surface.Surface.
func (s *Surface) Render(_ context.Context, f surface.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notice := s.notice
	if notice != nil && !notice.Active(s.now()) {
		s.notice, notice = nil, nil
	}

	w, err := s.open(f.Seq)
	if err != nil {
		return err
	}

	err = Chart(f, notice).Render(w)
	if err != nil {
		_ = w.Close()

		return fmt.Errorf("render frame %d: %w", f.Seq, err)
	}

	return w.Close()
}

// Notify implements surface.Surface.
func (s *Surface) Notify(_ context.Context, n surface.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notice = &n

	return nil
}
