package morph

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultLerpRate is how fast parts approach their mode pose, per second.
	DefaultLerpRate = 4.0

	doorOpenAngle = 82 * deg
	flapFrequency = 10.0
	flapAmplitude = 0.8
)

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// Frame carries everything one animation tick reads. It is built by the
// session after locomotion has run.
type Frame struct {
	Mode       Mode
	DoorOpen   bool
	WheelSpin  float64
	Elapsed    float64 // seconds since session start
	Dt         float64 // seconds since previous frame
	PixelRatio float64
}

// PartRuntimeTransform is a part's derived local transform for one frame.
type PartRuntimeTransform struct {
	Position  mgl64.Vec3
	Base      mgl64.Quat // smoothed mode orientation
	Secondary mgl64.Quat // behavior offset, applied in the part's local frame
	Final     mgl64.Quat // Base * Secondary
}

// secondaryFunc returns the behavior rotation for one part.
type secondaryFunc func(spec *PartPoseSpec, f Frame) mgl64.Quat

// secondaryMotion maps each behavior kind to its strategy.
var secondaryMotion = map[BehaviorKind]secondaryFunc{
	BehaviorPlain:  noSecondary,
	BehaviorDoor:   doorSecondary,
	BehaviorWheel:  wheelSecondary,
	BehaviorDriver: noSecondary,
}

func noSecondary(*PartPoseSpec, Frame) mgl64.Quat {
	return mgl64.QuatIdent()
}

// doorSecondary flaps the doors as wings in flight and swings them open about
// the hinge in car mode. Left and right mirror each other.
func doorSecondary(spec *PartPoseSpec, f Frame) mgl64.Quat {
	switch {
	case f.Mode == ModeFlight:
		a := spec.Side * math.Sin(f.Elapsed*flapFrequency) * flapAmplitude
		return mgl64.QuatRotate(a, axisZ)
	case f.Mode == ModeCar && f.DoorOpen:
		return mgl64.QuatRotate(spec.Side*doorOpenAngle, axisY)
	default:
		return mgl64.QuatIdent()
	}
}

// wheelSecondary spins about the axle. In robot mode the wheels are joints
// and stay still.
func wheelSecondary(_ *PartPoseSpec, f Frame) mgl64.Quat {
	if f.Mode == ModeRobot {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(f.WheelSpin, axisX)
}

// PartAnimator drives one part node toward its pose for the active mode.
type PartAnimator struct {
	Spec     *PartPoseSpec
	Node     *Node
	LerpRate float64

	current   PartRuntimeTransform
	secondary secondaryFunc
	mounted   bool
}

// NewPartAnimator binds spec to node. Panics if the spec's behavior kind has
// no strategy.
func NewPartAnimator(spec *PartPoseSpec, node *Node) *PartAnimator {
	fn, ok := secondaryMotion[spec.Behavior]
	if !ok {
		panic(fmt.Sprintf("morph: no secondary motion for behavior %d", uint8(spec.Behavior)))
	}
	return &PartAnimator{
		Spec:      spec,
		Node:      node,
		LerpRate:  DefaultLerpRate,
		secondary: fn,
	}
}

// Current returns the transform computed by the last Update.
func (a *PartAnimator) Current() PartRuntimeTransform {
	return a.current
}

// smoothFactor returns the per-frame blend weight for dt.
func (a *PartAnimator) smoothFactor(dt float64) float64 {
	return math.Min(1, a.LerpRate*dt)
}

// Update advances the part by one frame and writes the result to its node.
// The first call snaps to the target pose; later calls only blend.
func (a *PartAnimator) Update(f Frame) PartRuntimeTransform {
	target := a.Spec.PoseFor(f.Mode)
	targetRot := target.Quat()

	if !a.mounted {
		a.current.Position = target.Position
		a.current.Base = targetRot
		a.mounted = true
	} else {
		k := a.smoothFactor(f.Dt)
		a.current.Position = lerpVec3(a.current.Position, target.Position, k)
		a.current.Base = slerpShortest(a.current.Base, targetRot, k)
	}

	a.current.Secondary = a.secondary(a.Spec, f)
	a.current.Final = a.current.Base.Mul(a.current.Secondary).Normalize()

	a.Node.SetPosition(a.current.Position)
	a.Node.SetRotation(a.current.Final)

	if c := a.Node.Cloud; c != nil {
		c.Ensure(a.Node.Geometry)
		c.Uniforms.Time = float32(f.Elapsed)
		c.Uniforms.PixelRatio = float32(f.PixelRatio)
	}
	return a.current
}

func lerpVec3(from, to mgl64.Vec3, t float64) mgl64.Vec3 {
	return from.Add(to.Sub(from).Mul(t))
}

// slerpShortest interpolates along the shorter arc between two orientations.
func slerpShortest(from, to mgl64.Quat, t float64) mgl64.Quat {
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	if t >= 1 {
		return to.Normalize()
	}
	return mgl64.QuatSlerp(from, to, t).Normalize()
}

// quatAngle returns the rotation angle between two orientations in radians.
func quatAngle(a, b mgl64.Quat) float64 {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	return 2 * math.Acos(math.Min(1, d))
}
