package morph

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GeometryKind selects the primitive a part is built from.
type GeometryKind uint8

const (
	GeometryBox      GeometryKind = iota // Size = width, height, depth
	GeometryCylinder                     // Size.X = radius, Size.Y = length along local X
	GeometrySphere                       // Size.X = radius
)

// Geometry describes a part's shape in its local frame. Offset shifts the
// mesh away from the node origin so that the origin can act as a hinge.
type Geometry struct {
	Kind   GeometryKind
	Size   mgl64.Vec3
	Offset mgl64.Vec3
}

// Extents returns the half-size of the geometry's local bounding box,
// ignoring Offset.
func (g Geometry) Extents() mgl64.Vec3 {
	switch g.Kind {
	case GeometryBox:
		return g.Size.Mul(0.5)
	case GeometryCylinder:
		r := g.Size.X()
		return mgl64.Vec3{g.Size.Y() / 2, r, r}
	case GeometrySphere:
		r := g.Size.X()
		return mgl64.Vec3{r, r, r}
	default:
		panic(fmt.Sprintf("morph: invalid geometry kind %d", uint8(g.Kind)))
	}
}

// Volume returns the geometric volume of the shape.
func (g Geometry) Volume() float64 {
	switch g.Kind {
	case GeometryBox:
		return g.Size.X() * g.Size.Y() * g.Size.Z()
	case GeometryCylinder:
		r := g.Size.X()
		return math.Pi * r * r * g.Size.Y()
	case GeometrySphere:
		r := g.Size.X()
		return 4.0 / 3.0 * math.Pi * r * r * r
	default:
		panic(fmt.Sprintf("morph: invalid geometry kind %d", uint8(g.Kind)))
	}
}

// Box, Cylinder and Sphere are shorthand geometry constructors.
func Box(w, h, d float64) Geometry { return Geometry{Kind: GeometryBox, Size: mgl64.Vec3{w, h, d}} }

func Cylinder(radius, length float64) Geometry {
	return Geometry{Kind: GeometryCylinder, Size: mgl64.Vec3{radius, length, 0}}
}

func Sphere(radius float64) Geometry {
	return Geometry{Kind: GeometrySphere, Size: mgl64.Vec3{radius, 0, 0}}
}

// BehaviorKind selects the secondary-motion strategy applied on top of a
// part's base pose.
type BehaviorKind uint8

const (
	BehaviorPlain  BehaviorKind = iota // no secondary motion
	BehaviorDoor                       // swings open in car mode, flaps in flight
	BehaviorWheel                      // spins with the body outside robot mode
	BehaviorDriver                     // seated figure, no secondary motion
)

// String returns the behavior name.
func (k BehaviorKind) String() string {
	switch k {
	case BehaviorPlain:
		return "plain"
	case BehaviorDoor:
		return "door"
	case BehaviorWheel:
		return "wheel"
	case BehaviorDriver:
		return "driver"
	default:
		return fmt.Sprintf("BehaviorKind(%d)", uint8(k))
	}
}

// Pose is a local position and an XYZ Euler orientation in radians.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
}

// Quat returns the pose orientation as a quaternion.
func (p Pose) Quat() mgl64.Quat {
	return eulerQuat(p.Rotation)
}

// PartPoseSpec is the immutable description of one rigid part.
type PartPoseSpec struct {
	Name     string
	Behavior BehaviorKind
	// Side is +1 for left-hand parts and -1 for right-hand parts. Doors use it
	// to mirror their swing; it is 0 for centered parts.
	Side     float64
	Geometry Geometry
	Color    Color

	Car    Pose
	Flight *Pose // nil falls back to Car
	Robot  Pose
}

// PoseFor returns the target pose for mode.
func (s *PartPoseSpec) PoseFor(m Mode) Pose {
	switch m {
	case ModeCar:
		return s.Car
	case ModeFlight:
		if s.Flight != nil {
			return *s.Flight
		}
		return s.Car
	case ModeRobot:
		return s.Robot
	default:
		panic(fmt.Sprintf("morph: invalid mode %d", uint8(m)))
	}
}

const deg = math.Pi / 180

var (
	colorBody   = Color{R: 0.85, G: 0.18, B: 0.22, A: 1}
	colorCabin  = Color{R: 0.25, G: 0.55, B: 0.85, A: 1}
	colorDoor   = Color{R: 0.95, G: 0.35, B: 0.30, A: 1}
	colorWheel  = Color{R: 0.15, G: 0.15, B: 0.18, A: 1}
	colorLeg    = Color{R: 0.60, G: 0.62, B: 0.68, A: 1}
	colorDriver = Color{R: 0.98, G: 0.80, B: 0.55, A: 1}
	colorSuit   = Color{R: 0.20, G: 0.70, B: 0.45, A: 1}
)

func pose(x, y, z, rx, ry, rz float64) Pose {
	return Pose{Position: mgl64.Vec3{x, y, z}, Rotation: mgl64.Vec3{rx, ry, rz}}
}

func posePtr(x, y, z, rx, ry, rz float64) *Pose {
	p := pose(x, y, z, rx, ry, rz)
	return &p
}

// doorGeometry puts the door's hinge at the node origin: the panel extends
// backward (-Z) from its front edge.
func doorGeometry() Geometry {
	g := Box(0.1, 0.55, 1.3)
	g.Offset = mgl64.Vec3{0, 0, -0.65}
	return g
}

// DefaultParts returns the fixed part table, one spec per rigid part. Local
// frame: +Y up, +Z forward, +X to the vehicle's left.
func DefaultParts() []PartPoseSpec {
	return []PartPoseSpec{
		{
			Name: "torso", Behavior: BehaviorPlain, Geometry: Box(2.0, 0.6, 4.0), Color: colorBody,
			Car:    pose(0, 0.75, 0, 0, 0, 0),
			Flight: posePtr(0, 0.8, 0, 0, 0, 0),
			Robot:  pose(0, 3.0, 0, -90*deg, 0, 0),
		},
		{
			Name: "head", Behavior: BehaviorPlain, Geometry: Box(1.6, 0.6, 1.8), Color: colorCabin,
			Car:   pose(0, 1.35, -0.3, 0, 0, 0),
			Robot: pose(0, 5.35, 0, 0, 0, 0),
		},
		{
			Name: "door_left", Behavior: BehaviorDoor, Side: 1, Geometry: doorGeometry(), Color: colorDoor,
			Car:    pose(1.05, 0.85, 0.75, 0, 0, 0),
			Flight: posePtr(1.0, 0.95, 0.6, 0, 0, 90*deg),
			Robot:  pose(1.35, 3.9, 0, 90*deg, 0, 0),
		},
		{
			Name: "door_right", Behavior: BehaviorDoor, Side: -1, Geometry: doorGeometry(), Color: colorDoor,
			Car:    pose(-1.05, 0.85, 0.75, 0, 0, 0),
			Flight: posePtr(-1.0, 0.95, 0.6, 0, 0, -90*deg),
			Robot:  pose(-1.35, 3.9, 0, 90*deg, 0, 0),
		},
		{
			Name: "wheel_front_left", Behavior: BehaviorWheel, Side: 1, Geometry: Cylinder(0.42, 0.3), Color: colorWheel,
			Car:    pose(1.1, 0.42, 1.3, 0, 0, 0),
			Flight: posePtr(1.2, 0.6, 1.3, 0, 0, 90*deg),
			Robot:  pose(1.3, 4.35, 0, 0, 0, 0),
		},
		{
			Name: "wheel_front_right", Behavior: BehaviorWheel, Side: -1, Geometry: Cylinder(0.42, 0.3), Color: colorWheel,
			Car:    pose(-1.1, 0.42, 1.3, 0, 0, 0),
			Flight: posePtr(-1.2, 0.6, 1.3, 0, 0, 90*deg),
			Robot:  pose(-1.3, 4.35, 0, 0, 0, 0),
		},
		{
			Name: "wheel_rear_left", Behavior: BehaviorWheel, Side: 1, Geometry: Cylinder(0.42, 0.3), Color: colorWheel,
			Car:    pose(1.1, 0.42, -1.3, 0, 0, 0),
			Flight: posePtr(1.2, 0.6, -1.3, 0, 0, 90*deg),
			Robot:  pose(0.55, 0.42, 0.1, 0, 0, 0),
		},
		{
			Name: "wheel_rear_right", Behavior: BehaviorWheel, Side: -1, Geometry: Cylinder(0.42, 0.3), Color: colorWheel,
			Car:    pose(-1.1, 0.42, -1.3, 0, 0, 0),
			Flight: posePtr(-1.2, 0.6, -1.3, 0, 0, 90*deg),
			Robot:  pose(-0.55, 0.42, 0.1, 0, 0, 0),
		},
		{
			Name: "leg_l", Behavior: BehaviorPlain, Side: 1, Geometry: Box(0.45, 1.6, 0.45), Color: colorLeg,
			Car:   pose(0.45, 0.55, -0.8, 90*deg, 0, 0),
			Robot: pose(0.55, 1.6, 0, 0, 0, 0),
		},
		{
			Name: "leg_r", Behavior: BehaviorPlain, Side: -1, Geometry: Box(0.45, 1.6, 0.45), Color: colorLeg,
			Car:   pose(-0.45, 0.55, -0.8, 90*deg, 0, 0),
			Robot: pose(-0.55, 1.6, 0, 0, 0, 0),
		},
		{
			Name: "driver_head", Behavior: BehaviorDriver, Geometry: Sphere(0.22), Color: colorDriver,
			Car:    pose(0, 1.45, 0.1, 0, 0, 0),
			Flight: posePtr(0, 1.5, 0.1, 0, 0, 0),
			Robot:  pose(0, 3.85, 0.45, 0, 0, 0),
		},
		{
			Name: "driver_body", Behavior: BehaviorDriver, Geometry: Box(0.55, 0.5, 0.4), Color: colorSuit,
			Car:    pose(0, 1.05, 0.1, 0, 0, 0),
			Flight: posePtr(0, 1.1, 0.1, 0, 0, 0),
			Robot:  pose(0, 3.35, 0.45, 0, 0, 0),
		},
	}
}
