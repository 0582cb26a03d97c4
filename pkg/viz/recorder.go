package viz

import (
	"fmt"
	"slices"
	"strconv"
)

// Recorder accumulates the steps of one operation.
type Recorder struct {
	op     string
	timing Timing
	steps  []Step
	found  bool
	result string
}

// NewRecorder starts a trace for op using the default timing.
func NewRecorder(op string) *Recorder {
	return &Recorder{op: op, timing: DefaultTiming()}
}

func (r *Recorder) add(state HighlightState, pace Pace, shape Shape, caption string, ids []string) {
	targets := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			targets = append(targets, id)
		}
	}

	r.steps = append(r.steps, Step{
		Targets: targets,
		State:   state,
		Pace:    pace,
		Hold:    r.timing.Hold(pace),
		Caption: caption,
		Shape:   shape,
	})
}

// Visit records a traversal step over ids.
func (r *Recorder) Visit(caption string, ids ...string) {
	r.add(StateVisiting, PaceVisit, nil, caption, ids)
}

// Compare records a comparison between ids.
func (r *Recorder) Compare(caption string, ids ...string) {
	r.add(StateComparing, PaceVisit, nil, caption, ids)
}

// Mark records a highlight of ids with an explicit state and pace.
func (r *Recorder) Mark(state HighlightState, pace Pace, caption string, ids ...string) {
	r.add(state, pace, nil, caption, ids)
}

// Restructure records a linkage change: layout switches to shape, then ids
// are highlighted with state.
func (r *Recorder) Restructure(shape Shape, state HighlightState, caption string, ids ...string) {
	r.add(state, PaceChange, shape, caption, ids)
}

// Found records the terminal highlight of a successful lookup.
func (r *Recorder) Found(caption string, ids ...string) {
	r.found = true
	r.add(StateFound, PaceResult, nil, caption, ids)
}

// NotFound records the terminal highlight of a failed lookup. When every id
// given is empty, such as the last node of a walk over an empty structure,
// no step is recorded.
func (r *Recorder) NotFound(caption string, ids ...string) {
	r.found = false

	if len(ids) > 0 && !slices.ContainsFunc(ids, func(id string) bool { return id != "" }) {
		return
	}

	r.add(StateNotFound, PaceResult, nil, caption, ids)
}

// SetResult stores the display value computed by the operation.
func (r *Recorder) SetResult(v any) {
	r.result = fmt.Sprint(v)
}

// SetFound overrides the lookup result without emitting a step.
func (r *Recorder) SetFound(found bool) {
	r.found = found
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	return len(r.steps)
}

// Trace returns the recorded trace.
func (r *Recorder) Trace() Trace {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)

	return Trace{Op: r.op, Steps: steps, Found: r.found, Result: r.result}
}

// IDs hands out stable, never reused node ids with a fixed prefix.
type IDs struct {
	prefix string
	next   uint64
}

// NewIDs returns an allocator producing "<prefix>-1", "<prefix>-2", ...
func NewIDs(prefix string) *IDs {
	return &IDs{prefix: prefix}
}

// Next returns a fresh id.
func (a *IDs) Next() string {
	a.next++

	return a.prefix + "-" + strconv.FormatUint(a.next, 10)
}

// Clone returns an independent allocator continuing from the same counter.
func (a *IDs) Clone() *IDs {
	c := *a

	return &c
}

// Label formats a value for display.
func Label(v any) string {
	return fmt.Sprint(v)
}
