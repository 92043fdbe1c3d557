package morph

import (
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// scenarioStep is a single action in a scenario script.
type scenarioStep struct {
	Action  string `yaml:"action"`
	Key     string `yaml:"key,omitempty"`
	Command string `yaml:"command,omitempty"`
	Mode    string `yaml:"mode,omitempty"`
	Door    *bool  `yaml:"door,omitempty"`
	Label   string `yaml:"label,omitempty"`
	Frames  int    `yaml:"frames,omitempty"`

	key  ebiten.Key
	cmd  Command
	mode Mode
}

// scenarioScript is the top-level document. JSON is valid YAML, so both
// formats load.
type scenarioScript struct {
	Name  string         `yaml:"name"`
	Steps []scenarioStep `yaml:"steps"`
}

// scenarioHost is the part of the session a scenario reads and drives.
type scenarioHost interface {
	Mode() Mode
	DoorOpen() bool
	Screenshot(label string)
	CommandKey(cmd Command) (ebiten.Key, bool)
}

// Scenario sequences injected key events, expectations and screenshots
// across frames. It drives the SyntheticSource the session reads from.
type Scenario struct {
	Name string

	src         *SyntheticSource
	steps       []scenarioStep
	cursor      int
	waitCount   int
	holdKey     ebiten.Key
	holding     bool
	done        bool
	failures    []string
	log         *zap.Logger
	frameNumber int
}

// ParseScenario decodes a YAML or JSON script and validates every step.
func ParseScenario(data []byte, src *SyntheticSource) (*Scenario, error) {
	var script scenarioScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("parse scenario: no steps")
	}
	for i := range script.Steps {
		if err := script.Steps[i].resolve(); err != nil {
			return nil, fmt.Errorf("parse scenario: step %d: %w", i+1, err)
		}
	}
	return &Scenario{
		Name:  script.Name,
		src:   src,
		steps: script.Steps,
		log:   zap.NewNop(),
	}, nil
}

// LoadScenario reads and parses the script at path.
func LoadScenario(path string, src *SyntheticSource) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return ParseScenario(data, src)
}

// resolve checks the step's fields and decodes its names.
func (st *scenarioStep) resolve() error {
	var err error
	switch st.Action {
	case "press", "release":
		st.key, err = ParseKey(st.Key)
	case "hold":
		if st.Frames <= 0 {
			return fmt.Errorf("hold needs frames > 0")
		}
		st.key, err = ParseKey(st.Key)
	case "command":
		st.cmd, err = ParseCommand(st.Command)
	case "wait":
		if st.Frames < 0 {
			return fmt.Errorf("wait frames must not be negative")
		}
	case "screenshot":
	case "expect_mode":
		st.mode, err = ParseMode(st.Mode)
	case "expect_door":
		if st.Door == nil {
			return fmt.Errorf("expect_door needs door")
		}
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return err
}

// Done reports whether every step has run and all injected events have been
// delivered.
func (r *Scenario) Done() bool {
	return r.done
}

// Failures returns the failed expectations so far.
func (r *Scenario) Failures() []string {
	return r.failures
}

// step advances the scenario by one frame. Called by the session before
// input sampling.
func (r *Scenario) step(h scenarioHost) {
	if r.done {
		return
	}
	r.frameNumber++
	// Wait for pending injections to drain before advancing.
	if r.src.Pending() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.holding {
		r.holding = false
		r.src.InjectRelease(r.holdKey)
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "press":
		r.src.InjectPress(st.key)
	case "release":
		r.src.InjectRelease(st.key)
	case "hold":
		r.src.InjectPress(st.key)
		r.holdKey = st.key
		r.holding = true
		r.waitCount = st.Frames - 1 // released on the frame after the last held one
	case "command":
		key, ok := h.CommandKey(st.cmd)
		if !ok {
			r.fail(fmt.Sprintf("no key bound to %s", st.cmd))
			break
		}
		r.src.InjectTap(key)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "screenshot":
		h.Screenshot(st.Label)
	case "expect_mode":
		if got := h.Mode(); got != st.mode {
			r.fail(fmt.Sprintf("step %d: mode = %s, want %s", r.cursor, got, st.mode))
		}
	case "expect_door":
		if got := h.DoorOpen(); got != *st.Door {
			r.fail(fmt.Sprintf("step %d: door open = %v, want %v", r.cursor, got, *st.Door))
		}
	}

	// A screenshot is taken when the frame is drawn, so the scenario stays
	// open until the next step.
	if st.Action != "screenshot" && r.cursor >= len(r.steps) && r.waitCount == 0 && !r.holding && r.src.Pending() == 0 {
		r.done = true
	}
}

func (r *Scenario) fail(msg string) {
	r.failures = append(r.failures, msg)
	r.log.Warn("scenario expectation failed",
		zap.String("scenario", r.Name),
		zap.Int("frame", r.frameNumber),
		zap.String("detail", msg))
}
