package morph

import (
	"errors"
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	orbitSensitivity = 0.006 // radians per pixel of drag
	wheelZoomStep    = 0.9   // distance factor per wheel notch
)

// RunConfig holds window and loop settings for Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// TPS sets the fixed update rate. Zero uses Ebitengine's default of 60.
	TPS int
	// ExitWhenScenarioDone stops the loop once an attached scenario has run
	// all of its steps.
	ExitWhenScenarioDone bool
}

// game adapts a Session to ebiten.Game and handles mouse camera control.
type game struct {
	session *Session
	cfg     RunConfig
	dt      float64

	dragging     bool
	lastX, lastY int
}

// Run opens a window and drives session until the window is closed. The
// session is closed when Run returns.
func Run(session *Session, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("run: window size must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	tps := cfg.TPS
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(tps)

	g := &game{session: session, cfg: cfg, dt: 1 / float64(tps)}
	defer session.Close()

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func (g *game) Update() error {
	g.session.SetPixelRatio(ebiten.Monitor().DeviceScaleFactor())
	g.handleMouse()
	g.session.Update(g.dt)

	if sc := g.session.Scenario(); g.cfg.ExitWhenScenarioDone && sc != nil && sc.Done() {
		return ebiten.Termination
	}
	return nil
}

// handleMouse routes clicks to the HUD buttons and drags and wheel to the
// orbit camera.
func (g *game) handleMouse() {
	x, y := ebiten.CursorPosition()
	cam := g.session.Camera()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if cmd, ok := g.session.HUD().HitTest(float64(x), float64(y)); ok {
			g.session.Apply(cmd)
		} else {
			g.dragging = true
			g.lastX, g.lastY = x, y
		}
	}
	if g.dragging {
		if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			g.dragging = false
		} else {
			dx, dy := x-g.lastX, y-g.lastY
			cam.Orbit(-float64(dx)*orbitSensitivity, -float64(dy)*orbitSensitivity)
			g.lastX, g.lastY = x, y
		}
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		cam.Zoom(math.Pow(wheelZoomStep, wy))
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	g.session.Draw(screen)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.session.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
