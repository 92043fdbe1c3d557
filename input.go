package morph

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Direction is a logical movement direction.
type Direction uint8

const (
	DirForward Direction = iota
	DirBackward
	DirTurnLeft
	DirTurnRight
	numDirections
)

// InputSnapshot is the set of held directions sampled once per frame.
type InputSnapshot struct {
	Forward   bool
	Backward  bool
	TurnLeft  bool
	TurnRight bool
}

// KeyEvent is a raw key press or release.
type KeyEvent struct {
	Key     ebiten.Key
	Pressed bool
}

// EventSource delivers key events to subscribers.
type EventSource interface {
	Subscribe(fn func(KeyEvent)) Subscription
}

// Poller is implemented by sources that deliver events when polled. The
// session polls its source once per frame during input sampling.
type Poller interface {
	Poll() bool
}

// DefaultMovementKeys maps raw keys to logical directions.
var DefaultMovementKeys = map[ebiten.Key]Direction{
	ebiten.KeyArrowUp:    DirForward,
	ebiten.KeyW:          DirForward,
	ebiten.KeyArrowDown:  DirBackward,
	ebiten.KeyS:          DirBackward,
	ebiten.KeyArrowLeft:  DirTurnLeft,
	ebiten.KeyA:          DirTurnLeft,
	ebiten.KeyArrowRight: DirTurnRight,
	ebiten.KeyD:          DirTurnRight,
}

// DefaultCommandKeys maps raw keys to mode commands, fired on press.
var DefaultCommandKeys = map[ebiten.Key]Command{
	ebiten.KeyR:     CommandToggleRobot,
	ebiten.KeyF:     CommandToggleFlight,
	ebiten.KeyE:     CommandToggleDoor,
	ebiten.KeySpace: CommandToggleDoor,
}

// InputState tracks which movement keys are held. Events only ever touch the
// held-key map; the frame loop reads it through Snapshot.
type InputState struct {
	bindings map[ebiten.Key]Direction
	held     map[ebiten.Key]bool
	sub      Subscription
	closed   bool
}

// NewInputState creates an input state subscribed to src. Close releases the
// subscription.
func NewInputState(src EventSource, bindings map[ebiten.Key]Direction) *InputState {
	if bindings == nil {
		bindings = DefaultMovementKeys
	}
	s := &InputState{
		bindings: bindings,
		held:     make(map[ebiten.Key]bool),
	}
	s.sub = src.Subscribe(s.handle)
	return s
}

func (s *InputState) handle(ev KeyEvent) {
	if _, ok := s.bindings[ev.Key]; !ok {
		return
	}
	if ev.Pressed {
		s.held[ev.Key] = true
	} else {
		delete(s.held, ev.Key)
	}
}

// Held reports whether any key bound to d is down.
func (s *InputState) Held(d Direction) bool {
	for k := range s.held {
		if s.bindings[k] == d {
			return true
		}
	}
	return false
}

// Snapshot samples the held directions.
func (s *InputState) Snapshot() InputSnapshot {
	var dirs [numDirections]bool
	for k := range s.held {
		dirs[s.bindings[k]] = true
	}
	return InputSnapshot{
		Forward:   dirs[DirForward],
		Backward:  dirs[DirBackward],
		TurnLeft:  dirs[DirTurnLeft],
		TurnRight: dirs[DirTurnRight],
	}
}

// Release clears every held key, e.g. when the window loses focus.
func (s *InputState) Release() {
	clear(s.held)
}

// Close unsubscribes from the event source and clears held keys. Safe to
// call more than once.
func (s *InputState) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.sub.Remove()
	s.Release()
}

// --- Subscriptions ---

type keyHandler struct {
	id uint32
	fn func(KeyEvent)
}

// handlerRegistry fans key events out to subscribers in subscription order.
type handlerRegistry struct {
	handlers []keyHandler
	nextID   uint32
}

// Subscription allows removing a registered key handler.
type Subscription struct {
	id  uint32
	reg *handlerRegistry
}

// Remove unregisters the handler so it no longer fires.
func (h Subscription) Remove() {
	if h.reg == nil {
		return
	}
	s := h.reg.handlers
	for i := range s {
		if s[i].id == h.id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = keyHandler{}
			h.reg.handlers = s[:len(s)-1]
			return
		}
	}
}

func (r *handlerRegistry) subscribe(fn func(KeyEvent)) Subscription {
	r.nextID++
	r.handlers = append(r.handlers, keyHandler{id: r.nextID, fn: fn})
	return Subscription{id: r.nextID, reg: r}
}

func (r *handlerRegistry) dispatch(ev KeyEvent) {
	for _, h := range r.handlers {
		h.fn(ev)
	}
}

func (r *handlerRegistry) count() int {
	return len(r.handlers)
}

// --- Keyboard source ---

// KeyboardSource polls Ebitengine's keyboard once per tick and emits an
// event for every key that changed state.
type KeyboardSource struct {
	reg  handlerRegistry
	keys []ebiten.Key
}

// NewKeyboardSource creates a keyboard source. Call Poll from Game.Update.
func NewKeyboardSource() *KeyboardSource {
	return &KeyboardSource{}
}

// Subscribe registers fn for key events.
func (k *KeyboardSource) Subscribe(fn func(KeyEvent)) Subscription {
	return k.reg.subscribe(fn)
}

// Poll emits press events followed by release events for this tick. Returns
// true if any event was delivered.
func (k *KeyboardSource) Poll() bool {
	delivered := false
	k.keys = inpututil.AppendJustPressedKeys(k.keys[:0])
	for _, key := range k.keys {
		k.reg.dispatch(KeyEvent{Key: key, Pressed: true})
		delivered = true
	}
	k.keys = inpututil.AppendJustReleasedKeys(k.keys[:0])
	for _, key := range k.keys {
		k.reg.dispatch(KeyEvent{Key: key, Pressed: false})
		delivered = true
	}
	return delivered
}

// keyNames maps the lower-case names accepted by ParseKey to key codes.
var keyNames = map[string]ebiten.Key{
	"up":    ebiten.KeyArrowUp,
	"down":  ebiten.KeyArrowDown,
	"left":  ebiten.KeyArrowLeft,
	"right": ebiten.KeyArrowRight,
	"w":     ebiten.KeyW,
	"a":     ebiten.KeyA,
	"s":     ebiten.KeyS,
	"d":     ebiten.KeyD,
	"r":     ebiten.KeyR,
	"f":     ebiten.KeyF,
	"e":     ebiten.KeyE,
	"p":     ebiten.KeyP,
	"space": ebiten.KeySpace,
	"home":  ebiten.KeyHome,
}

// ParseKey resolves a key name such as "W", "up" or "space".
func ParseKey(name string) (ebiten.Key, error) {
	if k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}
