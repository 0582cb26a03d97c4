package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// ArgKind is the type an input is parsed into.
type ArgKind string

// Argument kinds.
const (
	// Int is a decimal integer.
	Int ArgKind = "int"
	// Text is any non-empty string.
	Text ArgKind = "text"
	// IntList consumes every remaining input as integers; it must come last.
	IntList ArgKind = "ints"
)

// Arg describes one input of a control.
type Arg struct {
	Name string
	Kind ArgKind
}

// Args holds the parsed inputs of one invocation.
type Args struct {
	ints  []int
	texts []string
	list  []int
}

// Int returns the i-th input parsed as an integer.
func (a Args) Int(i int) int { return a.ints[i] }

// Text returns the i-th input as text.
func (a Args) Text(i int) string { return a.texts[i] }

// List returns the trailing integer list.
func (a Args) List() []int { return a.list }

func parse(op string, want []Arg, inputs []string) (Args, error) {
	a := Args{ints: make([]int, len(inputs)), texts: make([]string, len(inputs))}

	for i, arg := range want {
		if arg.Kind == IntList {
			for _, in := range inputs[min(i, len(inputs)):] {
				n, err := parseInt(op, in)
				if err != nil {
					return Args{}, err
				}

				a.list = append(a.list, n)
			}

			return a, nil
		}

		if i >= len(inputs) {
			return Args{}, viz.Fail(op, nil, fmt.Errorf("%w: missing %s", viz.ErrValidation, arg.Name))
		}

		in := strings.TrimSpace(inputs[i])
		if in == "" {
			return Args{}, viz.Fail(op, nil, fmt.Errorf("%w: %s is empty", viz.ErrValidation, arg.Name))
		}

		a.texts[i] = in

		if arg.Kind == Int {
			n, err := parseInt(op, in)
			if err != nil {
				return Args{}, err
			}

			a.ints[i] = n
		}
	}

	if len(inputs) > len(want) {
		return Args{}, viz.Fail(op, nil, fmt.Errorf("%w: expects %d inputs, got %d", viz.ErrValidation, len(want), len(inputs)))
	}

	return a, nil
}

func parseInt(op, in string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(in))
	if err != nil {
		return 0, viz.Fail(op, in, fmt.Errorf("%w: not a number", viz.ErrValidation))
	}

	return n, nil
}
