package morph

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	cylinderSegments = 14
	sphereRings      = 6
	sphereSegments   = 10
)

// meshFace is a convex triangle or quad in a part's local space.
type meshFace struct {
	verts  [4]mgl64.Vec3
	n      int
	normal mgl64.Vec3
	shade  float64 // albedo multiplier, used to make spin visible on wheels
}

// meshData is the face list of one Geometry.
type meshData struct {
	faces []meshFace
}

// meshCache holds built meshes keyed by geometry (no locking, morph is
// single-threaded).
var meshCache = map[Geometry]*meshData{}

// meshFor returns the cached mesh for g, building it on first use.
func meshFor(g Geometry) *meshData {
	if m, ok := meshCache[g]; ok {
		return m
	}
	var m *meshData
	switch g.Kind {
	case GeometryBox:
		m = buildBox(g.Extents())
	case GeometryCylinder:
		m = buildCylinder(g.Size.X(), g.Size.Y()/2)
	case GeometrySphere:
		m = buildSphere(g.Size.X())
	default:
		m = &meshData{}
	}
	for i := range m.faces {
		f := &m.faces[i]
		for j := 0; j < f.n; j++ {
			f.verts[j] = f.verts[j].Add(g.Offset)
		}
	}
	meshCache[g] = m
	return m
}

func quadFace(a, b, c, d, normal mgl64.Vec3, shade float64) meshFace {
	return meshFace{verts: [4]mgl64.Vec3{a, b, c, d}, n: 4, normal: normal, shade: shade}
}

func triFace(a, b, c, normal mgl64.Vec3, shade float64) meshFace {
	return meshFace{verts: [4]mgl64.Vec3{a, b, c}, n: 3, normal: normal, shade: shade}
}

// buildBox returns the six faces of a box with half-size e.
func buildBox(e mgl64.Vec3) *meshData {
	m := &meshData{faces: make([]meshFace, 0, 6)}
	for axis := 0; axis < 3; axis++ {
		u := (axis + 1) % 3
		v := (axis + 2) % 3
		for _, s := range [2]float64{-1, 1} {
			corner := func(su, sv float64) mgl64.Vec3 {
				var p mgl64.Vec3
				p[axis] = s * e[axis]
				p[u] = su * e[u]
				p[v] = sv * e[v]
				return p
			}
			var n mgl64.Vec3
			n[axis] = s
			m.faces = append(m.faces, quadFace(
				corner(-1, -1), corner(1, -1), corner(1, 1), corner(-1, 1), n, 1))
		}
	}
	return m
}

// buildCylinder returns a cylinder of radius r along local X from -h to h.
// Alternate segments are shaded darker so rotation about the axle reads.
func buildCylinder(r, h float64) *meshData {
	m := &meshData{faces: make([]meshFace, 0, cylinderSegments*3)}
	ring := func(i int) (mgl64.Vec3, float64) {
		a := 2 * math.Pi * float64(i) / cylinderSegments
		sin, cos := math.Sincos(a)
		return mgl64.Vec3{0, r * sin, r * cos}, a
	}
	for i := 0; i < cylinderSegments; i++ {
		p0, a0 := ring(i)
		p1, _ := ring(i + 1)
		mid := a0 + math.Pi/cylinderSegments
		sin, cos := math.Sincos(mid)
		shade := 1.0
		if i%2 == 1 {
			shade = 0.7
		}
		left := mgl64.Vec3{-h, 0, 0}
		right := mgl64.Vec3{h, 0, 0}
		m.faces = append(m.faces,
			quadFace(p0.Add(left), p0.Add(right), p1.Add(right), p1.Add(left), mgl64.Vec3{0, sin, cos}, shade),
			triFace(right, p0.Add(right), p1.Add(right), mgl64.Vec3{1, 0, 0}, shade),
			triFace(left, p1.Add(left), p0.Add(left), mgl64.Vec3{-1, 0, 0}, shade),
		)
	}
	return m
}

// buildSphere returns a low-poly UV sphere of radius r.
func buildSphere(r float64) *meshData {
	m := &meshData{faces: make([]meshFace, 0, sphereRings*sphereSegments)}
	point := func(ring, seg int) mgl64.Vec3 {
		theta := math.Pi * float64(ring) / sphereRings
		phi := 2 * math.Pi * float64(seg) / sphereSegments
		sinT, cosT := math.Sincos(theta)
		sinP, cosP := math.Sincos(phi)
		return mgl64.Vec3{r * sinT * cosP, r * cosT, r * sinT * sinP}
	}
	for ring := 0; ring < sphereRings; ring++ {
		for seg := 0; seg < sphereSegments; seg++ {
			a := point(ring, seg)
			b := point(ring, seg+1)
			c := point(ring+1, seg+1)
			d := point(ring+1, seg)
			n := a.Add(b).Add(c).Add(d).Normalize()
			m.faces = append(m.faces, quadFace(a, b, c, d, n, 1))
		}
	}
	return m
}
