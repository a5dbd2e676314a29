package switcher

import (
	"sync"
	"time"
)

// Script is an in-memory Feed that walks a fixed input list, either on a
// timer (demo mode) or under manual control (tests). It never fails.
type Script struct {
	mu       sync.Mutex
	inputs   []Input
	idx      int
	interval time.Duration
	last     time.Time
}

var _ Feed = (*Script)(nil)

// NewScript builds a scripted feed over the given inputs. With a positive
// interval the feed advances to the next input each time that much wall
// clock passes; with zero it only moves on Advance.
func NewScript(inputs []Input, interval time.Duration) *Script {
	return &Script{inputs: inputs, interval: interval, last: time.Now()}
}

// DemoInputs is the input set used by demo mode.
func DemoInputs() []Input {
	return []Input{
		{ID: 1, Name: "Camera 1"},
		{ID: 2, Name: "Camera 2"},
		{ID: 3, Name: "Camera 3"},
		{ID: 4, Name: "Graphics"},
	}
}

func (s *Script) ProgramInput() (Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval > 0 {
		for time.Since(s.last) >= s.interval {
			s.last = s.last.Add(s.interval)
			s.idx = (s.idx + 1) % len(s.inputs)
		}
	}
	return s.inputs[s.idx], nil
}

// Advance moves to the next input in the list.
func (s *Script) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = (s.idx + 1) % len(s.inputs)
}

func (s *Script) Inputs() []Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Input, len(s.inputs))
	copy(out, s.inputs)
	return out
}

func (s *Script) Close() error { return nil }
