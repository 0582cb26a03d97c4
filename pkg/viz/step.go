package viz

import "time"

// Pace classifies how long a step should stay on screen.
type Pace uint8

// Paces.
const (
	// PaceVisit is a short hold for traversal steps.
	PaceVisit Pace = iota
	// PaceChange is a medium hold for structural changes (rotations, splits, swaps).
	PaceChange
	// PaceResult is a long hold for the terminal result of an operation.
	PaceResult
)

// Default hold durations.
const (
	DefaultVisitHold  = 300 * time.Millisecond
	DefaultChangeHold = 600 * time.Millisecond
	DefaultResultHold = 1000 * time.Millisecond
)

// Timing maps paces to hold durations.
type Timing struct {
	Visit  time.Duration
	Change time.Duration
	Result time.Duration
}

// DefaultTiming returns the reference hold durations.
func DefaultTiming() Timing {
	return Timing{Visit: DefaultVisitHold, Change: DefaultChangeHold, Result: DefaultResultHold}
}

// Hold returns the hold duration for a pace.
func (t Timing) Hold(p Pace) time.Duration {
	switch p {
	case PaceVisit:
		return t.Visit
	case PaceChange:
		return t.Change
	default:
		return t.Result
	}
}

// Retime returns a copy of steps with Hold recomputed from each step's Pace.
func (t Timing) Retime(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, st := range steps {
		st.Hold = t.Hold(st.Pace)
		out[i] = st
	}

	return out
}

// Step is one discrete visual state of an operation's trace. Replaying steps
// in order with their holds reproduces the algorithm.
type Step struct {
	Targets []string
	State   HighlightState
	Pace    Pace
	Hold    time.Duration
	Caption string

	// Shape, when set, is the structure's linkage at this point of the
	// algorithm. Layout is recomputed from it before Targets are highlighted.
	Shape Shape
}

// Trace is the outcome of one engine operation.
type Trace struct {
	Op    string
	Steps []Step

	// Found reports the search result for lookup operations.
	Found bool

	// Result is a display string for operations that compute a value
	// (prefix sums, range queries, popped elements).
	Result string
}

// Restructures counts the steps that carry a shape checkpoint.
func (t Trace) Restructures() int {
	n := 0

	for _, st := range t.Steps {
		if st.Shape != nil {
			n++
		}
	}

	return n
}

// StepsIn returns the steps whose state matches.
func (t Trace) StepsIn(state HighlightState) []Step {
	var out []Step

	for _, st := range t.Steps {
		if st.State == state {
			out = append(out, st)
		}
	}

	return out
}
