package morph

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween/ease"
	"golang.org/x/image/font/basicfont"
)

const (
	hudMargin       = 12.0
	hudButtonWidth  = 110.0
	hudButtonHeight = 28.0
	hudButtonGap    = 8.0
	hudLineHeight   = 16.0

	hudRateInterval = 0.5
	bannerFade      = 1.6
	bannerSlide     = 18.0
)

var (
	hudTextColor    = Color{0.92, 0.94, 0.98, 1}
	hudPanelColor   = Color{0, 0, 0, 0.5}
	hudButtonColor  = Color{0.18, 0.22, 0.3, 0.85}
	hudActiveColor  = Color{0.85, 0.55, 0.15, 0.95}
	hudDisabledText = Color{0.5, 0.5, 0.55, 1}
)

// hudButton is a clickable command button in screen space.
type hudButton struct {
	Label   string
	Command Command
	Bounds  Rect
}

// hudStatus is the read-only vehicle state the HUD displays.
type hudStatus struct {
	Mode     Mode
	DoorOpen bool
	Speed    float64
	Altitude float64
}

// HUD draws the status panel, the command buttons and a fading banner on mode
// changes. Rates are sampled every half second.
type HUD struct {
	Visible bool

	face    text.Face
	buttons []hudButton

	banner      string
	bannerColor Color
	bannerY     float64
	bannerFade  *TweenGroup
	bannerMove  *TweenGroup

	rateTimer   float64
	fps, tps    float64
	sampleRates func() (fps, tps float64)
}

// NewHUD creates a HUD using the built-in 7x13 bitmap face.
func NewHUD() *HUD {
	h := &HUD{
		Visible: true,
		face:    text.NewGoXFace(basicfont.Face7x13),
		buttons: []hudButton{
			{Label: "Robot [R]", Command: CommandToggleRobot},
			{Label: "Flight [F]", Command: CommandToggleFlight},
			{Label: "Door [E]", Command: CommandToggleDoor},
		},
		sampleRates: func() (float64, float64) {
			return ebiten.ActualFPS(), ebiten.ActualTPS()
		},
	}
	return h
}

// Layout places the buttons along the bottom-left edge of a screen of the
// given size.
func (h *HUD) Layout(width, height float64) {
	y := height - hudMargin - hudButtonHeight
	x := hudMargin
	for i := range h.buttons {
		h.buttons[i].Bounds = Rect{X: x, Y: y, Width: hudButtonWidth, Height: hudButtonHeight}
		x += hudButtonWidth + hudButtonGap
	}
}

// HitTest returns the command of the button under (x, y).
func (h *HUD) HitTest(x, y float64) (Command, bool) {
	if !h.Visible {
		return 0, false
	}
	for _, b := range h.buttons {
		if b.Bounds.Contains(x, y) {
			return b.Command, true
		}
	}
	return 0, false
}

// ShowBanner displays msg centered near the top and fades it out.
func (h *HUD) ShowBanner(msg string) {
	h.banner = msg
	h.bannerColor = hudTextColor
	h.bannerY = 0
	h.bannerFade = TweenColor(&h.bannerColor, Color{hudTextColor.R, hudTextColor.G, hudTextColor.B, 0}, bannerFade, ease.InCubic)
	h.bannerMove = TweenValue(&h.bannerY, -bannerSlide, bannerFade, ease.OutQuad)
}

// BannerActive reports whether a banner is still fading.
func (h *HUD) BannerActive() bool {
	return h.bannerFade != nil
}

// update advances the banner tweens and refreshes the rate readout.
func (h *HUD) update(dt float64) {
	if h.bannerFade != nil {
		h.bannerFade.Update(float32(dt))
		h.bannerMove.Update(float32(dt))
		if h.bannerFade.Done {
			h.bannerFade = nil
			h.bannerMove = nil
			h.banner = ""
		}
	}
	h.rateTimer += dt
	if h.rateTimer >= hudRateInterval {
		h.rateTimer = 0
		h.fps, h.tps = h.sampleRates()
	}
}

// statusLines returns the panel text for st.
func (h *HUD) statusLines(st hudStatus) []string {
	door := "closed"
	if st.DoorOpen {
		door = "open"
	}
	if st.Mode != ModeCar {
		door = "n/a"
	}
	return []string{
		fmt.Sprintf("Mode: %s", st.Mode),
		fmt.Sprintf("Door: %s", door),
		fmt.Sprintf("Speed: %.3f", st.Speed),
		fmt.Sprintf("Altitude: %.2f", st.Altitude),
		fmt.Sprintf("FPS: %.1f  TPS: %.1f", h.fps, h.tps),
	}
}

// buttonActive reports whether b should be highlighted for st.
func buttonActive(b hudButton, st hudStatus) bool {
	switch b.Command {
	case CommandToggleRobot:
		return st.Mode == ModeRobot
	case CommandToggleFlight:
		return st.Mode == ModeFlight
	case CommandToggleDoor:
		return st.Mode == ModeCar && st.DoorOpen
	}
	return false
}

// buttonLabel returns the text shown on b. The door button names the action
// it would take.
func buttonLabel(b hudButton, st hudStatus) string {
	if b.Command != CommandToggleDoor {
		return b.Label
	}
	if st.Mode == ModeCar && st.DoorOpen {
		return "Close " + b.Label
	}
	return "Open " + b.Label
}

// Draw renders the HUD on top of dst.
func (h *HUD) Draw(dst *ebiten.Image, st hudStatus) {
	if !h.Visible {
		return
	}
	lines := h.statusLines(st)
	panelH := float32(len(lines))*hudLineHeight + 10
	vector.DrawFilledRect(dst, hudMargin-4, hudMargin-4, 200, panelH, hudPanelColor.RGBA(), false)
	for i, l := range lines {
		h.drawText(dst, l, hudMargin, hudMargin+float64(i)*hudLineHeight, hudTextColor)
	}

	for _, b := range h.buttons {
		bg := hudButtonColor
		if buttonActive(b, st) {
			bg = hudActiveColor
		}
		r := b.Bounds
		vector.DrawFilledRect(dst, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), bg.RGBA(), true)
		vector.StrokeRect(dst, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), 1, hudTextColor.Scale(0.6).RGBA(), true)
		fg := hudTextColor
		if b.Command == CommandToggleDoor && st.Mode != ModeCar {
			fg = hudDisabledText
		}
		label := buttonLabel(b, st)
		w, _ := text.Measure(label, h.face, hudLineHeight)
		h.drawText(dst, label, r.X+(r.Width-w)/2, r.Y+(r.Height-hudLineHeight)/2+2, fg)
	}

	if h.banner != "" {
		sw := float64(dst.Bounds().Dx())
		w, _ := text.Measure(h.banner, h.face, hudLineHeight)
		op := &text.DrawOptions{}
		op.GeoM.Scale(2, 2)
		op.GeoM.Translate((sw-2*w)/2, 60+h.bannerY)
		op.ColorScale.ScaleWithColor(h.bannerColor.RGBA())
		text.Draw(dst, h.banner, h.face, op)
	}
}

func (h *HUD) drawText(dst *ebiten.Image, s string, x, y float64, c Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c.RGBA())
	text.Draw(dst, s, h.face, op)
}
