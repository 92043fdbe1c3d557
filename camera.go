package morph

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	// DefaultFollowLerp is the per-frame blend toward the follow target.
	DefaultFollowLerp = 0.1

	followOffsetGround = 1.0
	followOffsetRobot  = 2.5
)

// CameraConfig holds orbit limits and projection settings.
type CameraConfig struct {
	Distance    float64 `mapstructure:"distance"`
	MinDistance float64 `mapstructure:"min_distance"`
	MaxDistance float64 `mapstructure:"max_distance"`
	MinPolar    float64 `mapstructure:"min_polar"`
	MaxPolar    float64 `mapstructure:"max_polar"`
	FOV         float64 `mapstructure:"fov"` // vertical, degrees
	Near        float64 `mapstructure:"near"`
	Far         float64 `mapstructure:"far"`
}

// DefaultCameraConfig returns the stock orbit limits.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Distance:    12,
		MinDistance: 5,
		MaxDistance: 30,
		MinPolar:    0.2,
		MaxPolar:    math.Pi/2 - 0.05,
		FOV:         50,
		Near:        0.1,
		Far:         500,
	}
}

// OrbitCamera looks at a point that smoothly follows the vehicle. The user
// orbits and zooms on top of that; following never changes the orbit angles.
type OrbitCamera struct {
	CameraConfig

	// Target is the current look-at point.
	Target mgl64.Vec3
	// Azimuth is the horizontal angle around +Y, measured from +Z.
	Azimuth float64
	// Polar is the angle from +Y down to the view direction.
	Polar float64
	// Viewport is the screen rectangle the camera renders into.
	Viewport Rect

	FollowLerp float64

	zoomTween *gween.Tween
}

// NewOrbitCamera creates a camera behind the vehicle looking slightly down.
func NewOrbitCamera(cfg CameraConfig, viewport Rect) *OrbitCamera {
	c := &OrbitCamera{
		CameraConfig: cfg,
		Azimuth:      math.Pi,
		Polar:        1.1,
		Viewport:     viewport,
		FollowLerp:   DefaultFollowLerp,
	}
	c.clamp()
	return c
}

// FollowOffset returns the vertical look-at offset above the body for mode.
// Robot mode frames the raised torso.
func FollowOffset(m Mode) float64 {
	m.mustValid()
	if m == ModeRobot {
		return followOffsetRobot
	}
	return followOffsetGround
}

// Follow blends the look-at point toward the body position plus the mode's
// vertical offset. It never teleports.
func (c *OrbitCamera) Follow(body mgl64.Vec3, mode Mode) {
	goal := body.Add(mgl64.Vec3{0, FollowOffset(mode), 0})
	c.Target = c.Target.Add(goal.Sub(c.Target).Mul(c.FollowLerp))
}

// SnapTo moves the look-at point immediately. Used once at mount.
func (c *OrbitCamera) SnapTo(body mgl64.Vec3, mode Mode) {
	c.Target = body.Add(mgl64.Vec3{0, FollowOffset(mode), 0})
}

// Orbit rotates the view by the given angle deltas in radians, clamping the
// polar angle.
func (c *OrbitCamera) Orbit(dAzimuth, dPolar float64) {
	c.Azimuth += dAzimuth
	c.Polar += dPolar
	c.clamp()
}

// Zoom scales the orbit distance by factor, clamped to the configured range.
// Cancels any running ZoomTo.
func (c *OrbitCamera) Zoom(factor float64) {
	c.zoomTween = nil
	c.Distance *= factor
	c.clamp()
}

// ZoomTo animates the orbit distance to d over duration seconds.
func (c *OrbitCamera) ZoomTo(d float64, duration float32, easeFn ease.TweenFunc) {
	d = Range{c.MinDistance, c.MaxDistance}.Clamp(d)
	c.zoomTween = gween.New(float32(c.Distance), float32(d), duration, easeFn)
}

// Zooming reports whether a ZoomTo animation is running.
func (c *OrbitCamera) Zooming() bool {
	return c.zoomTween != nil
}

// update advances the zoom animation.
func (c *OrbitCamera) update(dt float32) {
	if c.zoomTween == nil {
		return
	}
	val, done := c.zoomTween.Update(dt)
	c.Distance = float64(val)
	if done {
		c.zoomTween = nil
	}
	c.clamp()
}

func (c *OrbitCamera) clamp() {
	c.Polar = Range{c.MinPolar, c.MaxPolar}.Clamp(c.Polar)
	c.Distance = Range{c.MinDistance, c.MaxDistance}.Clamp(c.Distance)
}

// Eye returns the camera position in world space.
func (c *OrbitCamera) Eye() mgl64.Vec3 {
	sinP, cosP := math.Sincos(c.Polar)
	sinA, cosA := math.Sincos(c.Azimuth)
	return c.Target.Add(mgl64.Vec3{
		c.Distance * sinP * sinA,
		c.Distance * cosP,
		c.Distance * sinP * cosA,
	})
}

// View returns the world-to-view matrix.
func (c *OrbitCamera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye(), c.Target, axisY)
}

// Projection returns the perspective matrix for the viewport aspect ratio.
func (c *OrbitCamera) Projection() mgl64.Mat4 {
	aspect := 1.0
	if c.Viewport.Height > 0 {
		aspect = c.Viewport.Width / c.Viewport.Height
	}
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c *OrbitCamera) ViewProjection() mgl64.Mat4 {
	return c.Projection().Mul4(c.View())
}

// WorldToScreen projects a world point into viewport pixels. depth is the
// view-space distance along the view axis; ok is false for points behind the
// near plane.
func (c *OrbitCamera) WorldToScreen(p mgl64.Vec3) (sx, sy, depth float64, ok bool) {
	return projectPoint(c.ViewProjection(), c.View(), c.Viewport, c.Near, p)
}

// projectPoint is WorldToScreen with precomputed matrices, for the renderer's
// inner loop.
func projectPoint(viewProj, view mgl64.Mat4, vp Rect, near float64, p mgl64.Vec3) (sx, sy, depth float64, ok bool) {
	depth = -view.Mul4x1(p.Vec4(1)).Z()
	if depth < near {
		return 0, 0, depth, false
	}
	clip := viewProj.Mul4x1(p.Vec4(1))
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	sx = vp.X + (ndcX+1)/2*vp.Width
	sy = vp.Y + (1-ndcY)/2*vp.Height
	return sx, sy, depth, true
}
