package morph

import "github.com/hajimehoshi/ebiten/v2"

// SyntheticSource is an EventSource fed by injected key events instead of a
// keyboard. Scenario scripts and tests drive the session through it.
//
// Events are queued and delivered one per Poll, so a press followed by a
// release spans two frames, identical to a real key tap.
type SyntheticSource struct {
	reg   handlerRegistry
	queue []KeyEvent
}

// NewSyntheticSource creates an empty synthetic source.
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{}
}

// Subscribe registers fn for key events.
func (s *SyntheticSource) Subscribe(fn func(KeyEvent)) Subscription {
	return s.reg.subscribe(fn)
}

// InjectPress queues a key press.
func (s *SyntheticSource) InjectPress(key ebiten.Key) {
	s.queue = append(s.queue, KeyEvent{Key: key, Pressed: true})
}

// InjectRelease queues a key release.
func (s *SyntheticSource) InjectRelease(key ebiten.Key) {
	s.queue = append(s.queue, KeyEvent{Key: key, Pressed: false})
}

// InjectTap is a convenience that queues a press followed by a release.
// Consumes two frames.
func (s *SyntheticSource) InjectTap(key ebiten.Key) {
	s.InjectPress(key)
	s.InjectRelease(key)
}

// Pending returns the number of queued events.
func (s *SyntheticSource) Pending() int {
	return len(s.queue)
}

// Poll pops one event from the queue and dispatches it. Returns true if an
// event was delivered.
func (s *SyntheticSource) Poll() bool {
	if len(s.queue) == 0 {
		return false
	}
	ev := s.queue[0]
	copy(s.queue, s.queue[1:])
	s.queue = s.queue[:len(s.queue)-1]
	s.reg.dispatch(ev)
	return true
}
