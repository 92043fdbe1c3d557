package morph

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	minTwinklePoints = 16
	maxTwinklePoints = 256

	// DefaultTwinkleDensity is the number of points per cubic unit.
	DefaultTwinkleDensity = 24.0
)

// twinklePoint is one decorative point in the owning part's local space.
type twinklePoint struct {
	pos  mgl64.Vec3
	seed float32
	size float64 // pixels, before PixelRatio
}

// TwinkleUniforms are the two values the twinkle shader consumes each frame.
type TwinkleUniforms struct {
	Time       float32
	PixelRatio float32
}

// TwinkleCloud is a randomized point layout inside a part's volume. The layout
// is generated once per geometry and is not re-randomized per frame.
type TwinkleCloud struct {
	Density  float64
	Size     Range // on-screen point size in pixels, before PixelRatio
	Color    Color
	Uniforms TwinkleUniforms

	geom   Geometry
	built  bool
	points []twinklePoint
	seed   uint64
	rng    *rand.Rand
}

// NewTwinkleCloud creates a cloud that draws its layout from a PCG stream
// seeded with seed. The stream restarts on every rebuild, so the same seed and
// geometry always give the same layout.
func NewTwinkleCloud(seed uint64, density float64) *TwinkleCloud {
	if density <= 0 {
		density = DefaultTwinkleDensity
	}
	return &TwinkleCloud{
		Density: density,
		Size:    Range{Min: 2, Max: 5},
		Color:   Color{R: 1, G: 0.95, B: 0.75, A: 1},
		seed:    seed,
	}
}

func newTwinkleRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// twinkleCount returns the number of points for geom at density.
func twinkleCount(geom Geometry, density float64) int {
	n := int(math.Round(geom.Volume() * density))
	return max(minTwinklePoints, min(n, maxTwinklePoints))
}

// Ensure rebuilds the layout when geom differs from the geometry the cloud
// was last built for. Returns true if a rebuild happened.
func (c *TwinkleCloud) Ensure(geom Geometry) bool {
	if c.built && c.geom == geom {
		return false
	}
	c.geom = geom
	c.built = true
	c.rng = newTwinkleRand(c.seed)
	n := twinkleCount(geom, c.Density)
	if cap(c.points) < n {
		c.points = make([]twinklePoint, n)
	}
	c.points = c.points[:n]
	for i := range c.points {
		c.points[i] = twinklePoint{
			pos:  samplePoint(geom, c.rng).Add(geom.Offset),
			seed: c.rng.Float32(),
			size: c.Size.Random(c.rng),
		}
	}
	return true
}

// Len returns the number of points in the current layout.
func (c *TwinkleCloud) Len() int {
	return len(c.points)
}

// Point returns the local position and seed of point i.
func (c *TwinkleCloud) Point(i int) (mgl64.Vec3, float32) {
	p := c.points[i]
	return p.pos, p.seed
}

// PointSize returns the on-screen size of point i in pixels, before
// PixelRatio.
func (c *TwinkleCloud) PointSize(i int) float64 {
	return c.points[i].size
}

// samplePoint returns a uniformly distributed point inside geom, centered on
// the geometry origin.
func samplePoint(geom Geometry, rng *rand.Rand) mgl64.Vec3 {
	sym := func(h float64) float64 { return (rng.Float64()*2 - 1) * h }
	switch geom.Kind {
	case GeometryBox:
		e := geom.Extents()
		return mgl64.Vec3{sym(e.X()), sym(e.Y()), sym(e.Z())}
	case GeometryCylinder:
		// Axis along local X.
		r := geom.Size.X() * math.Sqrt(rng.Float64())
		a := rng.Float64() * 2 * math.Pi
		return mgl64.Vec3{sym(geom.Size.Y() / 2), r * math.Sin(a), r * math.Cos(a)}
	case GeometrySphere:
		r := geom.Size.X()
		for {
			p := mgl64.Vec3{sym(r), sym(r), sym(r)}
			if p.Len() <= r {
				return p
			}
		}
	default:
		return mgl64.Vec3{}
	}
}
