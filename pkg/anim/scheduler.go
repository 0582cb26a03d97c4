// Package anim replays animation steps with timed holds between them.
//
// A Scheduler runs at most one playback at a time. Steps execute strictly in
// order from a single playback goroutine; the only suspension points are the
// holds between steps, so cancellation always lands between two steps and
// never inside one.
package anim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

var (
	// ErrBusy is returned by Schedule under PolicyIgnore while a playback is active.
	ErrBusy = errors.New("anim: playback in progress")

	// ErrCanceled reports a playback stopped before its last step.
	ErrCanceled = errors.New("anim: playback canceled")

	// ErrInvalidPolicy is returned when parsing an unknown policy name.
	ErrInvalidPolicy = errors.New("anim: unknown policy")
)

// Policy decides what happens when a playback is requested while another is active.
type Policy string

// Policies.
const (
	// PolicyIgnore rejects the new playback with ErrBusy.
	PolicyIgnore Policy = "ignore"
	// PolicyPreempt cancels the active playback between steps and starts the new one.
	PolicyPreempt Policy = "preempt"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyIgnore, PolicyPreempt:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Applier applies one step to the visual state. It runs on the playback goroutine.
type Applier func(ctx context.Context, index int, step viz.Step) error

// Finisher runs once after the last step, or after cancellation, with the
// playback error (nil on completion).
type Finisher func(ctx context.Context, err error)

// Sleeper suspends the playback for a hold. It returns early with the
// context's error when the playback is canceled.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Handle tracks one playback.
type Handle struct {
	id     uint64
	total  int
	cancel context.CancelFunc
	done   chan struct{}
	played atomic.Int64
	err    error
}

// ID returns the playback sequence number.
func (h *Handle) ID() uint64 { return h.id }

// Total returns the number of scheduled steps.
func (h *Handle) Total() int { return h.total }

// Played returns the number of steps applied so far.
func (h *Handle) Played() int { return int(h.played.Load()) }

// Done is closed when the playback has finished or stopped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the playback error. Only meaningful after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the playback ends or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return fmt.Errorf("wait for playback %d: %w", h.id, ctx.Err())
	}
}

func (h *Handle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Scheduler sequences playbacks.
type Scheduler struct {
	mu      sync.Mutex
	policy  Policy
	sleep   Sleeper
	logger  *slog.Logger
	current *Handle
	seq     uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPolicy sets the busy policy.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithSleeper replaces the wall-clock hold, typically with a fake in tests.
func WithSleeper(fn Sleeper) Option {
	return func(s *Scheduler) { s.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a Scheduler with PolicyIgnore and wall-clock holds.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{policy: PolicyIgnore, sleep: Sleep, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Policy returns the busy policy.
func (s *Scheduler) Policy() Policy {
	return s.policy
}

// Animating reports whether a playback is active.
func (s *Scheduler) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current != nil && !s.current.finished()
}

// Current returns the active playback, or nil.
func (s *Scheduler) Current() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.finished() {
		return nil
	}

	return s.current
}

// Acquire makes room for a new playback according to the policy. Under
// PolicyIgnore it fails with ErrBusy while one is active; under
// PolicyPreempt it cancels the active playback and waits for it to stop.
func (s *Scheduler) Acquire(ctx context.Context) error {
	for {
		cur := s.Current()
		if cur == nil {
			return nil
		}

		if s.policy != PolicyPreempt {
			return ErrBusy
		}

		cur.cancel()

		// The preempted playback itself ends with ErrCanceled; only a wait
		// cut short by ctx stops the preemption.
		if err := cur.Wait(ctx); err != nil && ctx.Err() != nil {
			return fmt.Errorf("preempt: %w", err)
		}
	}
}

// Schedule starts replaying steps. apply runs for every step, then the
// playback holds for the step's duration. finish, if non-nil, runs after the
// last step or after cancellation, before Done is closed.
//
// The playback outlives ctx's cancellation (it keeps ctx's values); stop it
// with Cancel.
func (s *Scheduler) Schedule(ctx context.Context, steps []viz.Step, apply Applier, finish Finisher) (*Handle, error) {
	for {
		err := s.Acquire(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.current != nil && !s.current.finished() {
			s.mu.Unlock()

			continue
		}

		s.seq++
		playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		h := &Handle{id: s.seq, total: len(steps), cancel: cancel, done: make(chan struct{})}
		s.current = h
		s.mu.Unlock()

		s.logger.DebugContext(ctx, "playback started", "playback", h.id, "steps", len(steps))

		go s.run(playCtx, h, steps, apply, finish)

		return h, nil
	}
}

// Cancel stops h between steps. Highlights applied so far are left as they are.
func (s *Scheduler) Cancel(h *Handle) {
	if h != nil {
		h.cancel()
	}
}

// CancelCurrent stops the active playback, if any.
func (s *Scheduler) CancelCurrent() {
	s.Cancel(s.Current())
}

func (s *Scheduler) run(ctx context.Context, h *Handle, steps []viz.Step, apply Applier, finish Finisher) {
	defer close(h.done)
	defer h.cancel()

	h.err = s.play(ctx, h, steps, apply)

	if finish != nil {
		finish(context.WithoutCancel(ctx), h.err)
	}

	if h.err != nil {
		s.logger.DebugContext(ctx, "playback stopped", "playback", h.id, "played", h.Played(), "error", h.err)
	} else {
		s.logger.DebugContext(ctx, "playback finished", "playback", h.id, "played", h.Played())
	}
}

func (s *Scheduler) play(ctx context.Context, h *Handle, steps []viz.Step, apply Applier) error {
	for i, st := range steps {
		if ctx.Err() != nil {
			return ErrCanceled
		}

		err := apply(ctx, i, st)
		if err != nil {
			return fmt.Errorf("apply step %d: %w", i, err)
		}

		h.played.Add(1)

		sleepErr := s.sleep(ctx, st.Hold)
		if sleepErr != nil && i < len(steps)-1 {
			return ErrCanceled
		}
	}

	return nil
}
