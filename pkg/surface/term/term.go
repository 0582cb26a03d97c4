// Package term renders frames as plain or ANSI-colored text. Nodes are laid
// out in rows by their canvas height and drawn as a go-pretty table, one row
// per level, which suits arrays, buckets and small trees alike.
package term

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/dsviz/pkg/surface"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Colors is the text attribute per highlight state.
var Colors = map[viz.HighlightState][]color.Attribute{
	viz.StateVisiting:  {color.FgYellow, color.Bold},
	viz.StateComparing: {color.FgHiYellow},
	viz.StatePath:      {color.FgBlue},
	viz.StateFound:     {color.FgGreen, color.Bold},
	viz.StateNotFound:  {color.FgRed, color.Bold},
	viz.StateInserted:  {color.FgCyan, color.Bold},
	viz.StateDeleting:  {color.FgRed, color.CrossedOut},
	viz.StateRotating:  {color.FgMagenta},
	viz.StateSplitting: {color.FgHiMagenta},
	viz.StateMerging:   {color.FgHiBlue},
	viz.StateRecolored: {color.FgHiRed},
	viz.StateUpdated:   {color.FgHiCyan},
}

// Option configures a Surface.
type Option func(*Surface)

// WithColor forces ANSI colors on or off. By default fatih/color decides
// from the terminal.
func WithColor(on bool) Option {
	return func(s *Surface) { s.colorMode = &on }
}

// WithClock replaces time.Now for notice expiry captions.
func WithClock(now func() time.Time) Option {
	return func(s *Surface) { s.now = now }
}

// WithMarkers appends the state name to highlighted labels, e.g. "20*visiting".
// It keeps highlights readable without colors.
func WithMarkers() Option {
	return func(s *Surface) { s.markers = true }
}

// Surface writes a text block per frame to w.
type Surface struct {
	mu        sync.Mutex
	w         io.Writer
	colorMode *bool
	markers   bool
	now       func() time.Time
	painters  map[viz.HighlightState]*color.Color
}

// New returns a surface writing to w.
func New(w io.Writer, opts ...Option) *Surface {
	s := &Surface{w: w, now: time.Now, painters: make(map[viz.HighlightState]*color.Color, len(Colors))}
	for _, opt := range opts {
		opt(s)
	}

	for st, attrs := range Colors {
		c := color.New(attrs...)

		switch {
		case s.colorMode == nil:
		case *s.colorMode:
			c.EnableColor()
		default:
			c.DisableColor()
		}

		s.painters[st] = c
	}

	return s
}

func (s *Surface) label(n viz.VisualNode) string {
	text := n.Label
	if text == "" {
		text = "·"
	}

	// Red nodes of a red-black tree are parenthesized.
	if n.Tone == viz.ToneRed {
		text = "(" + text + ")"
	}

	if s.markers && n.State != viz.StateDefault {
		text += "*" + string(n.State)
	}

	if p, ok := s.painters[n.State]; ok {
		return p.Sprint(text)
	}

	return text
}

// Render implements surface.Surface.
func (s *Surface) Render(_ context.Context, f surface.Frame) error {
	var b strings.Builder

	fmt.Fprintf(&b, "#%s %s", humanize.Comma(int64(f.Seq)), f.Structure)

	if f.Op != "" {
		fmt.Fprintf(&b, " %s", f.Op)
	}

	if f.Animating {
		fmt.Fprintf(&b, " [%s of %d]", humanize.Ordinal(f.Step), f.Total)
	}

	b.WriteByte('\n')

	if len(f.Nodes) > 0 {
		b.WriteString(s.table(f.Nodes))
		b.WriteByte('\n')
	} else {
		b.WriteString("(empty)\n")
	}

	if f.Caption != "" {
		fmt.Fprintf(&b, "  %s\n", f.Caption)
	}

	if f.Result != "" {
		fmt.Fprintf(&b, "  => %s\n", f.Result)
	}

	return s.write(b.String())
}

// table draws one row per distinct y, cells ordered by x.
func (s *Surface) table(nodes []viz.VisualNode) string {
	rows := map[float64][]viz.VisualNode{}
	for _, n := range nodes {
		rows[n.Pos.Y] = append(rows[n.Pos.Y], n)
	}

	ys := make([]float64, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}

	slices.Sort(ys)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateRows = false

	for _, y := range ys {
		row := rows[y]
		slices.SortStableFunc(row, func(a, b viz.VisualNode) int {
			switch {
			case a.Pos.X < b.Pos.X:
				return -1
			case a.Pos.X > b.Pos.X:
				return 1
			default:
				return 0
			}
		})

		cells := make(table.Row, len(row))
		for i, n := range row {
			cells[i] = s.label(n)
		}

		tbl.AppendRow(cells)
	}

	return tbl.Render()
}

// Notify implements surface.Surface.
func (s *Surface) Notify(_ context.Context, n surface.Notice) error {
	p := color.New(color.FgRed)

	switch {
	case s.colorMode == nil:
	case *s.colorMode:
		p.EnableColor()
	default:
		p.DisableColor()
	}

	line := fmt.Sprintf("! %s %s: %s (clears %s)\n", n.Op, n.Kind, n.Message,
		humanize.RelTime(n.Expires, s.now(), "ago", "from now"))

	return s.write(p.Sprint(line))
}

func (s *Surface) write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := io.WriteString(s.w, text)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}
