package morph

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

const (
	homeZoomDuration = 0.6
	statsInterval    = 1.0
)

// Session owns one vehicle and every component that animates it. Update runs
// the per-frame pipeline in a fixed order; nothing in a session is safe for
// concurrent use.
type Session struct {
	ID uuid.UUID

	root     *Node
	vehicle  *Node
	parts    []*Node
	specs    []PartPoseSpec
	animator []*PartAnimator

	modes       ModeState
	src         EventSource
	input       *InputState
	commandSub  Subscription
	commandKeys map[ebiten.Key]Command

	body   *Integrator
	camera *OrbitCamera
	hud    *HUD

	renderer *Renderer
	shots    *screenshotter
	scenario *Scenario
	stats    *statsLogger

	homeDistance float64
	elapsed      float64
	lastDt       float64
	frame        int
	pixelRatio   float64
	debug        bool
	closed       bool

	log *zap.Logger
}

// NewSession builds the vehicle from the default part table, subscribes to
// src and mounts the parts in car mode. log may be nil.
func NewSession(cfg Config, src EventSource, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	log = log.With(zap.String("session", id.String()))

	s := &Session{
		ID:           id,
		root:         NewGroup("root"),
		vehicle:      NewGroup("vehicle"),
		specs:        DefaultParts(),
		src:          src,
		commandKeys:  DefaultCommandKeys,
		body:         NewIntegrator(cfg.Tuning),
		camera:       NewOrbitCamera(cfg.Camera, Rect{Width: float64(cfg.Window.Width), Height: float64(cfg.Window.Height)}),
		hud:          NewHUD(),
		renderer:     NewRenderer(log),
		shots:        newScreenshotter(cfg.Screenshot.Dir, ScreenshotFormat(cfg.Screenshot.Format), log),
		stats:        newStatsLogger(log, statsInterval),
		homeDistance: cfg.Camera.Distance,
		pixelRatio:   1,
		debug:        cfg.Debug,
		log:          log,
	}
	s.root.AddChild(s.vehicle)
	s.renderer.Twinkle = cfg.Twinkle.Enabled
	s.hud.Layout(float64(cfg.Window.Width), float64(cfg.Window.Height))

	for i := range s.specs {
		spec := &s.specs[i]
		n := NewPart(spec.Name, spec.Geometry, spec.Color)
		if cfg.Twinkle.Enabled {
			n.Cloud = NewTwinkleCloud(cfg.Twinkle.Seed+uint64(i), cfg.Twinkle.Density)
		}
		s.vehicle.AddChild(n)
		s.parts = append(s.parts, n)
		s.animator = append(s.animator, NewPartAnimator(spec, n))
	}

	s.modes.OnChange = s.onModeChange
	s.modes.OnIgnored = func(cmd Command, m Mode) {
		s.log.Debug("command ignored", zap.Stringer("command", cmd), zap.Stringer("mode", m))
	}
	s.input = NewInputState(src, DefaultMovementKeys)
	s.commandSub = src.Subscribe(s.handleKey)

	s.mount()
	log.Info("session started",
		zap.Int("parts", len(s.parts)),
		zap.Bool("twinkle", cfg.Twinkle.Enabled))
	return s
}

// mount places every part at its car pose and snaps the camera onto the body.
func (s *Session) mount() {
	s.body.Apply(s.vehicle)
	updateWorldTransform(s.root, mgl64.Ident4(), false)
	s.animate(0)
	updateWorldTransform(s.root, mgl64.Ident4(), false)
	s.camera.SnapTo(s.body.State().Position, s.modes.Mode())
}

// handleKey reacts to command and view keys. Movement keys are handled by
// InputState.
func (s *Session) handleKey(ev KeyEvent) {
	if !ev.Pressed {
		return
	}
	if cmd, ok := s.commandKeys[ev.Key]; ok {
		s.Apply(cmd)
		return
	}
	switch ev.Key {
	case ebiten.KeyP:
		s.Screenshot("manual")
	case ebiten.KeyHome:
		s.camera.ZoomTo(s.homeDistance, homeZoomDuration, ease.InOutQuad)
	}
}

func (s *Session) onModeChange(from, to Mode) {
	s.log.Info("mode changed", zap.Stringer("from", from), zap.Stringer("to", to))
	s.hud.ShowBanner(strings.ToUpper(to.String()))
}

// Apply issues a discrete command, as a key press or HUD button would.
func (s *Session) Apply(cmd Command) {
	s.modes.Apply(cmd)
}

// Update advances the session by dt seconds: scenario, input, locomotion,
// group transform, world transforms, part animation, camera, HUD.
func (s *Session) Update(dt float64) {
	if s.closed {
		return
	}
	s.frame++
	s.lastDt = dt
	s.elapsed += dt

	if s.scenario != nil {
		s.scenario.step(s)
	}

	if p, ok := s.src.(Poller); ok {
		p.Poll()
	}
	snap := s.input.Snapshot()

	mode := s.modes.Mode()
	body := s.body.Step(snap, mode, s.elapsed)
	s.body.Apply(s.vehicle)
	updateWorldTransform(s.root, mgl64.Ident4(), false)

	s.animate(dt)

	s.camera.Follow(body.Position, mode)
	s.camera.update(float32(dt))
	s.hud.update(dt)
}

// animate runs every part animator for the current state.
func (s *Session) animate(dt float64) {
	f := Frame{
		Mode:       s.modes.Mode(),
		DoorOpen:   s.modes.DoorOpen(),
		WheelSpin:  s.body.WheelSpin(),
		Elapsed:    s.elapsed,
		Dt:         dt,
		PixelRatio: s.pixelRatio,
	}
	for _, a := range s.animator {
		a.Update(f)
	}
}

// Draw renders the scene, the HUD and any queued screenshots.
func (s *Session) Draw(screen *ebiten.Image) {
	if s.closed {
		return
	}
	updateWorldTransform(s.root, mgl64.Ident4(), false)
	if s.debug {
		debugCheckTree(s.log, s.root)
	}
	s.renderer.Draw(screen, s.root, s.camera)
	s.hud.Draw(screen, s.status())
	s.shots.flush(screen)
	if s.debug {
		s.stats.add(s.lastDt, s.renderer.Stats())
	}
}

// Layout resizes the camera viewport and HUD to the screen.
func (s *Session) Layout(width, height int) {
	s.camera.Viewport = Rect{Width: float64(width), Height: float64(height)}
	s.hud.Layout(float64(width), float64(height))
}

// Close unsubscribes from the event source and disposes the scene tree.
// Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.input.Close()
	s.commandSub.Remove()
	s.root.Dispose()
	s.log.Info("session closed", zap.Int("frames", s.frame), zap.Float64("elapsed", s.elapsed))
}

func (s *Session) status() hudStatus {
	b := s.body.State()
	return hudStatus{
		Mode:     s.modes.Mode(),
		DoorOpen: s.modes.DoorOpen(),
		Speed:    b.Velocity,
		Altitude: b.Altitude,
	}
}

// --- Accessors ---

// Mode returns the active mode.
func (s *Session) Mode() Mode { return s.modes.Mode() }

// DoorOpen reports whether the door is open. Always false outside car mode.
func (s *Session) DoorOpen() bool { return s.modes.DoorOpen() }

// Body returns the current body state.
func (s *Session) Body() BodyState { return s.body.State() }

// Camera returns the orbit camera.
func (s *Session) Camera() *OrbitCamera { return s.camera }

// HUD returns the overlay.
func (s *Session) HUD() *HUD { return s.hud }

// Root returns the scene root.
func (s *Session) Root() *Node { return s.root }

// Vehicle returns the group node that carries the body transform.
func (s *Session) Vehicle() *Node { return s.vehicle }

// Part returns the node of the named part, or nil.
func (s *Session) Part(name string) *Node { return s.vehicle.FindChild(name) }

// Animator returns the animator of the named part, or nil.
func (s *Session) Animator(name string) *PartAnimator {
	for _, a := range s.animator {
		if a.Spec.Name == name {
			return a
		}
	}
	return nil
}

// Elapsed returns the session time in seconds.
func (s *Session) Elapsed() float64 { return s.elapsed }

// Frame returns the number of updates run.
func (s *Session) Frame() int { return s.frame }

// SetPixelRatio sets the device scale factor passed to the twinkle shader.
func (s *Session) SetPixelRatio(r float64) {
	if r > 0 {
		s.pixelRatio = r
	}
}

// SetScenario attaches a scenario. It is stepped at the start of every
// Update and should drive the session's own event source.
func (s *Session) SetScenario(sc *Scenario) {
	sc.log = s.log
	s.scenario = sc
}

// Scenario returns the attached scenario, or nil.
func (s *Session) Scenario() *Scenario { return s.scenario }

// Screenshot queues a labeled capture of the next drawn frame.
func (s *Session) Screenshot(label string) {
	s.shots.Queue(label)
}

// CommandKey returns the lowest key code bound to cmd.
func (s *Session) CommandKey(cmd Command) (ebiten.Key, bool) {
	var (
		best  ebiten.Key
		found bool
	)
	for k, c := range s.commandKeys {
		if c == cmd && (!found || k < best) {
			best, found = k, true
		}
	}
	return best, found
}
