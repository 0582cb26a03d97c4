package surface

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory records every frame and notice. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	frames  []Frame
	notices []Notice
}

// NewMemory returns an empty recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// Render implements Surface.
func (m *Memory) Render(_ context.Context, f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames = append(m.frames, f)

	return nil
}

// Notify implements Surface.
func (m *Memory) Notify(_ context.Context, n Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notices = append(m.notices, n)

	return nil
}

// Frames returns a copy of the recorded frames.
func (m *Memory) Frames() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.frames)
}

// Last returns the most recent frame.
func (m *Memory) Last() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.frames) == 0 {
		return Frame{}, false
	}

	return m.frames[len(m.frames)-1], true
}

// Notices returns every recorded notice.
func (m *Memory) Notices() []Notice {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.notices)
}

// ActiveNotices returns the notices still shown at now.
func (m *Memory) ActiveNotices(now time.Time) []Notice {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Notice

	for _, n := range m.notices {
		if n.Active(now) {
			out = append(out, n)
		}
	}

	return out
}

// Reset drops everything recorded so far.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames, m.notices = nil, nil
}
