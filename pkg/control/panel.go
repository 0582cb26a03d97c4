// Package control maps labeled controls 1:1 onto structure operations and
// runs them through a session. Inputs arrive as text, the way form fields
// deliver them, and are parsed before the engine is called.
package control

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/dsviz/pkg/anim"
	"github.com/Sumatoshi-tech/dsviz/pkg/session"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

var (
	// ErrUnknownControl is returned when invoking a name nothing is bound to.
	ErrUnknownControl = errors.New("control: unknown control")

	// ErrAlreadyBound is returned when binding a name twice.
	ErrAlreadyBound = errors.New("control: name already bound")
)

// Handler performs the operation behind a control with parsed inputs.
type Handler func(a Args) (viz.Trace, error)

// Control is one labeled operation.
type Control struct {
	Name     string
	Label    string
	Args     []Arg
	Mutating bool
	Handler  Handler
}

// State describes a control for display.
type State struct {
	Name    string
	Label   string
	Args    []Arg
	Enabled bool
}

// Panel is the set of controls of one session.
type Panel struct {
	session  *session.Session
	controls []Control
}

// NewPanel returns an empty panel driving s.
func NewPanel(s *session.Session) *Panel {
	return &Panel{session: s}
}

// Session returns the session the panel drives.
func (p *Panel) Session() *session.Session { return p.session }

// Bind adds c. Names are case-insensitive.
func (p *Panel) Bind(c Control) error {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	if c.Name == "" || c.Handler == nil {
		return fmt.Errorf("%w: control needs a name and a handler", viz.ErrValidation)
	}

	if _, ok := p.lookup(c.Name); ok {
		return fmt.Errorf("%w: %s", ErrAlreadyBound, c.Name)
	}

	if c.Label == "" {
		c.Label = strings.ToUpper(c.Name[:1]) + c.Name[1:]
	}

	p.controls = append(p.controls, c)

	return nil
}

func (p *Panel) lookup(name string) (Control, bool) {
	i := slices.IndexFunc(p.controls, func(c Control) bool { return c.Name == name })
	if i < 0 {
		return Control{}, false
	}

	return p.controls[i], true
}

// Names returns the bound control names in binding order.
func (p *Panel) Names() []string {
	out := make([]string, len(p.controls))
	for i, c := range p.controls {
		out[i] = c.Name
	}

	return out
}

// Controls reports every control. All are disabled while a playback runs.
func (p *Panel) Controls() []State {
	enabled := !p.session.Animating()
	out := make([]State, len(p.controls))

	for i, c := range p.controls {
		out[i] = State{Name: c.Name, Label: c.Label, Args: slices.Clone(c.Args), Enabled: enabled}
	}

	return out
}

// Invoke runs the named control with raw text inputs. Malformed inputs are
// rejected as validation errors through the session, so they surface as
// notices like any other rejection.
func (p *Panel) Invoke(ctx context.Context, name string, inputs ...string) (*anim.Handle, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	c, ok := p.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}

	return p.session.Run(ctx, c.Name, c.Mutating, func() (viz.Trace, error) {
		args, err := parse(c.Name, c.Args, inputs)
		if err != nil {
			return viz.Trace{Op: c.Name}, err
		}

		return c.Handler(args)
	})
}
