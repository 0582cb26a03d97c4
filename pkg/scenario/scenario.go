// Package scenario replays YAML scripts of operations through a control panel.
//
// A script names a structure, its construction parameters and a list of
// steps. Each step invokes one control with its inputs, waits for the
// playback to finish, and optionally asserts the kind of rejection:
//
//	structure: bst
//	steps:
//	  - {op: insert, args: [50]}
//	  - {op: insert, args: 50, expect: duplicate}
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/dsviz/pkg/control"
	"github.com/Sumatoshi-tech/dsviz/pkg/session"
	"github.com/Sumatoshi-tech/dsviz/pkg/surface"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

var (
	// ErrInvalidScript is returned when a script cannot be parsed or is incomplete.
	ErrInvalidScript = errors.New("scenario: invalid script")

	// ErrUnexpected is returned when a step's outcome differs from its expectation.
	ErrUnexpected = errors.New("scenario: unexpected outcome")
)

// Script is a parsed scenario.
type Script struct {
	Name      string            `yaml:"name,omitempty"`
	Structure string            `yaml:"structure"`
	Params    map[string]string `yaml:"params,omitempty"`
	Steps     []Step            `yaml:"steps"`
}

// Step is one control invocation.
type Step struct {
	Op     string        `yaml:"op"`
	Args   Inputs        `yaml:"args,omitempty"`
	Expect viz.ErrorKind `yaml:"expect,omitempty"`
}

// Inputs are raw control inputs. A single scalar is accepted in place of a list.
type Inputs []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (in *Inputs) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*in = Inputs{n.Value}
	case yaml.SequenceNode:
		out := make(Inputs, 0, len(n.Content))

		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: line %d: args must be scalars", ErrInvalidScript, c.Line)
			}

			out = append(out, c.Value)
		}

		*in = out
	default:
		return fmt.Errorf("%w: line %d: args must be a scalar or a list", ErrInvalidScript, n.Line)
	}

	return nil
}

// Load parses a script from r.
func Load(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Script

	err := dec.Decode(&sc)
	if err != nil {
		if errors.Is(err, ErrInvalidScript) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	err = sc.validate()
	if err != nil {
		return nil, err
	}

	return &sc, nil
}

// Encode writes sc as YAML.
func Encode(w io.Writer, sc *Script) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(sc)
	if err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}

	return enc.Close()
}

func (sc *Script) validate() error {
	if strings.TrimSpace(sc.Structure) == "" {
		return fmt.Errorf("%w: structure is required", ErrInvalidScript)
	}

	for i, st := range sc.Steps {
		if strings.TrimSpace(st.Op) == "" {
			return fmt.Errorf("%w: step %d has no op", ErrInvalidScript, i+1)
		}

		switch st.Expect {
		case viz.KindNone, viz.KindValidation, viz.KindNotFound, viz.KindDuplicate, viz.KindCapacity, viz.KindEmpty:
		default:
			return fmt.Errorf("%w: step %d expects unknown kind %q", ErrInvalidScript, i+1, st.Expect)
		}
	}

	return nil
}

// Outcome is the result of one step.
type Outcome struct {
	Step  Step
	Kind  viz.ErrorKind
	Err   error
	Steps int // Steps played; 0 when nothing was animated.
}

// Open builds the script's structure and a panel over it.
func Open(ctx context.Context, sc *Script, out surface.Surface, opts ...session.Option) (*control.Panel, error) {
	p, err := control.Open(ctx, sc.Structure, sc.Params, out, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", sc.Structure, err)
	}

	return p, nil
}

// Run invokes every step in order, waiting for each playback. It stops at
// the first step whose rejection kind differs from its expectation.
func Run(ctx context.Context, p *control.Panel, sc *Script) ([]Outcome, error) {
	out := make([]Outcome, 0, len(sc.Steps))

	for i, st := range sc.Steps {
		h, err := p.Invoke(ctx, st.Op, st.Args...)
		if errors.Is(err, control.ErrUnknownControl) {
			return out, fmt.Errorf("step %d: %w", i+1, err)
		}

		waitErr := p.Session().Wait(ctx)
		if waitErr != nil {
			return out, fmt.Errorf("step %d: %w", i+1, waitErr)
		}

		o := Outcome{Step: st, Kind: viz.KindOf(err), Err: err}
		if h != nil {
			o.Steps = h.Total()
		}

		out = append(out, o)

		if o.Kind != st.Expect {
			return out, fmt.Errorf("%w: step %d %s %s: want %q, got %q (%v)",
				ErrUnexpected, i+1, st.Op, strings.Join(st.Args, " "), st.Expect, o.Kind, err)
		}
	}

	return out, nil
}

// Play opens the script's structure on out and runs it.
func Play(ctx context.Context, sc *Script, out surface.Surface, opts ...session.Option) ([]Outcome, error) {
	p, err := Open(ctx, sc, out, opts...)
	if err != nil {
		return nil, err
	}

	return Run(ctx, p, sc)
}
