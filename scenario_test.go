package morph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost records what a scenario asks of the session.
type fakeHost struct {
	modes  ModeState
	shots  []string
	src    *SyntheticSource
	events []KeyEvent
}

func newFakeHost() *fakeHost {
	h := &fakeHost{src: NewSyntheticSource()}
	h.src.Subscribe(func(ev KeyEvent) {
		h.events = append(h.events, ev)
		if cmd, ok := DefaultCommandKeys[ev.Key]; ok && ev.Pressed {
			h.modes.Apply(cmd)
		}
	})
	return h
}

func (h *fakeHost) Mode() Mode              { return h.modes.Mode() }
func (h *fakeHost) DoorOpen() bool          { return h.modes.DoorOpen() }
func (h *fakeHost) Screenshot(label string) { h.shots = append(h.shots, label) }
func (h *fakeHost) CommandKey(cmd Command) (ebiten.Key, bool) {
	switch cmd {
	case CommandToggleRobot:
		return ebiten.KeyR, true
	case CommandToggleFlight:
		return ebiten.KeyF, true
	}
	return 0, false
}

// runScenario steps sc the way the session does: scenario first, then one
// poll of the source.
func runScenario(t *testing.T, sc *Scenario, h *fakeHost, maxFrames int) int {
	t.Helper()
	for frame := 1; frame <= maxFrames; frame++ {
		sc.step(h)
		h.src.Poll()
		if sc.Done() {
			return frame
		}
	}
	t.Fatalf("scenario not done after %d frames", maxFrames)
	return 0
}

func TestParseScenario(t *testing.T) {
	h := newFakeHost()
	sc, err := ParseScenario([]byte(`
name: smoke
steps:
  - {action: press, key: w}
  - {action: wait, frames: 3}
  - {action: release, key: w}
  - {action: command, command: toggle_robot}
  - {action: expect_mode, mode: robot}
  - {action: expect_door, door: false}
  - {action: screenshot, label: done}
`), h.src)
	require.NoError(t, err)
	assert.Equal(t, "smoke", sc.Name)
	assert.Len(t, sc.steps, 7)
	assert.Equal(t, ebiten.KeyW, sc.steps[0].key)
	assert.Equal(t, CommandToggleRobot, sc.steps[3].cmd)
	assert.Equal(t, ModeRobot, sc.steps[4].mode)
}

func TestParseScenarioJSON(t *testing.T) {
	sc, err := ParseScenario([]byte(`{"steps": [{"action": "hold", "key": "up", "frames": 5}]}`), NewSyntheticSource())
	require.NoError(t, err)
	require.Len(t, sc.steps, 1)
	assert.Equal(t, ebiten.KeyArrowUp, sc.steps[0].key)
	assert.Equal(t, 5, sc.steps[0].Frames)
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"empty", `steps: []`, "no steps"},
		{"bad yaml", `steps: [`, "parse scenario"},
		{"unknown action", `steps: [{action: jump}]`, `unknown action "jump"`},
		{"unknown key", `steps: [{action: press, key: F13}]`, "unknown key"},
		{"hold without frames", `steps: [{action: hold, key: w}]`, "hold needs frames"},
		{"unknown command", `steps: [{action: command, command: fly}]`, "unknown command"},
		{"unknown mode", `steps: [{action: expect_mode, mode: boat}]`, "unknown mode"},
		{"door missing", `steps: [{action: expect_door}]`, "expect_door needs door"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc), NewSyntheticSource())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: [{action: wait, frames: 1}]"), 0o644))

	sc, err := LoadScenario(path, NewSyntheticSource())
	require.NoError(t, err)
	assert.Len(t, sc.steps, 1)

	_, err = LoadScenario(filepath.Join(dir, "missing.yaml"), NewSyntheticSource())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load scenario")
}

func TestScenarioHoldTiming(t *testing.T) {
	h := newFakeHost()
	sc, err := ParseScenario([]byte(`steps: [{action: hold, key: w, frames: 4}]`), h.src)
	require.NoError(t, err)

	var heldFrames int
	in := NewInputState(h.src, nil)
	defer in.Close()
	for frame := 0; frame < 20 && !sc.Done(); frame++ {
		sc.step(h)
		h.src.Poll()
		if in.Held(DirForward) {
			heldFrames++
		}
	}
	require.True(t, sc.Done())
	assert.Equal(t, 4, heldFrames)
	assert.Equal(t, []KeyEvent{{ebiten.KeyW, true}, {ebiten.KeyW, false}}, h.events)
}

func TestScenarioCommandsAndExpectations(t *testing.T) {
	h := newFakeHost()
	sc, err := ParseScenario([]byte(`
steps:
  - {action: command, command: toggle_flight}
  - {action: expect_mode, mode: flight}
  - {action: command, command: toggle_robot}
  - {action: expect_mode, mode: car}
  - {action: screenshot, label: robot}
`), h.src)
	require.NoError(t, err)

	runScenario(t, sc, h, 50)
	assert.Equal(t, ModeRobot, h.Mode())
	assert.Equal(t, []string{"robot"}, h.shots)
	require.Len(t, sc.Failures(), 1)
	assert.Contains(t, sc.Failures()[0], "mode = robot, want car")
}

func TestScenarioUnboundCommandFails(t *testing.T) {
	h := newFakeHost()
	sc, err := ParseScenario([]byte(`steps: [{action: command, command: toggle_door}]`), h.src)
	require.NoError(t, err)
	runScenario(t, sc, h, 10)
	require.Len(t, sc.Failures(), 1)
	assert.Contains(t, sc.Failures()[0], "no key bound")
}

func TestScenarioWaitCountsFrames(t *testing.T) {
	h := newFakeHost()
	sc, err := ParseScenario([]byte(`steps: [{action: wait, frames: 5}, {action: screenshot, label: after}]`), h.src)
	require.NoError(t, err)

	frames := 0
	for !sc.Done() && frames < 20 {
		frames++
		sc.step(h)
		if len(h.shots) > 0 {
			break
		}
	}
	assert.Equal(t, 6, frames, "screenshot should run on the frame after the wait")
}

func TestScenarioStaysOpenForFinalScreenshot(t *testing.T) {
	h := newFakeHost()
	sc, err := ParseScenario([]byte(`steps: [{action: screenshot, label: last}]`), h.src)
	require.NoError(t, err)

	sc.step(h)
	assert.Equal(t, []string{"last"}, h.shots)
	assert.False(t, sc.Done(), "the capture is taken when the frame is drawn")
	sc.step(h)
	assert.True(t, sc.Done())
}
