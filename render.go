package morph

import (
	"cmp"
	"image/color"
	"math"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"
)

const (
	defaultAmbient     = 0.35
	defaultGridSpacing = 2.0
	defaultGridExtent  = 14
)

var defaultLightDir = mgl64.Vec3{0.4, 1, 0.3}.Normalize()

// drawFace is one projected, shaded polygon ready for submission.
type drawFace struct {
	sx, sy [4]float32
	n      int
	depth  float64
	color  Color
}

// drawPoint is one projected twinkle point.
type drawPoint struct {
	x, y   float32
	radius float32
	seed   float32
}

// drawCloud is the projected point run of one part plus its uniforms.
type drawCloud struct {
	start, end int
	color      Color
	uniforms   TwinkleUniforms
}

// gridLine is a projected ground segment.
type gridLine struct {
	x0, y0, x1, y1 float32
	major          bool
}

// Renderer draws the part tree with the painter's algorithm: faces are
// projected, culled against the eye, sorted far to near and submitted in a
// single DrawTriangles call.
type Renderer struct {
	ClearColor  Color
	GridColor   Color
	GridSpacing float64
	GridExtent  int
	Light       mgl64.Vec3 // direction toward the light, world space
	Ambient     float64
	Twinkle     bool

	faces  []drawFace
	points []drawPoint
	clouds []drawCloud
	lines  []gridLine
	verts  []ebiten.Vertex
	inds   []uint16

	shader       twinkleShader
	shaderLogged bool
	stats        debugStats
	log          *zap.Logger
}

// NewRenderer returns a renderer with the stock light, grid and background.
func NewRenderer(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		ClearColor:  Color{0.07, 0.08, 0.12, 1},
		GridColor:   Color{0.3, 0.34, 0.42, 1},
		GridSpacing: defaultGridSpacing,
		GridExtent:  defaultGridExtent,
		Light:       defaultLightDir,
		Ambient:     defaultAmbient,
		Twinkle:     true,
		log:         log,
	}
}

// Stats returns the counters of the last Draw.
func (r *Renderer) Stats() debugStats {
	return r.stats
}

// Draw renders the scene under root as seen from cam.
func (r *Renderer) Draw(target *ebiten.Image, root *Node, cam *OrbitCamera) {
	target.Fill(r.ClearColor.RGBA())

	t0 := time.Now()
	r.collect(root, cam)
	t1 := time.Now()
	r.sortFaces()
	t2 := time.Now()

	r.stats.drawCalls = 0
	r.drawGrid(target)
	r.drawFaces(target)
	r.drawTwinkles(target)

	r.stats.collectTime = t1.Sub(t0)
	r.stats.sortTime = t2.Sub(t1)
	r.stats.submitTime = time.Since(t2)
}

// collect fills the face, point and grid buffers for one frame. It touches
// no GPU state.
func (r *Renderer) collect(root *Node, cam *OrbitCamera) {
	r.faces = r.faces[:0]
	r.points = r.points[:0]
	r.clouds = r.clouds[:0]
	r.stats.culled = 0

	view := cam.View()
	viewProj := cam.Projection().Mul4(view)
	eye := cam.Eye()

	r.collectGrid(cam, viewProj, view)

	root.Walk(func(n *Node) {
		if !n.Visible || n.Type != NodeTypePart {
			return
		}
		world := n.WorldTransform()
		r.collectPart(n, world, eye, viewProj, view, cam)
		if r.Twinkle && n.Cloud != nil {
			r.collectCloud(n.Cloud, world, viewProj, view, cam)
		}
	})

	r.stats.faces = len(r.faces)
	r.stats.points = len(r.points)
	r.stats.lines = len(r.lines)
}

func (r *Renderer) collectPart(n *Node, world mgl64.Mat4, eye mgl64.Vec3, viewProj, view mgl64.Mat4, cam *OrbitCamera) {
	normalMat := world.Mat3()
	mesh := meshFor(n.Geometry)
	for i := range mesh.faces {
		mf := &mesh.faces[i]
		normal := normalMat.Mul3x1(mf.normal).Normalize()
		p0 := mgl64.TransformCoordinate(mf.verts[0], world)
		if normal.Dot(eye.Sub(p0)) <= 0 {
			r.stats.culled++
			continue
		}
		f := drawFace{n: mf.n}
		visible := true
		for j := 0; j < mf.n; j++ {
			p := p0
			if j > 0 {
				p = mgl64.TransformCoordinate(mf.verts[j], world)
			}
			sx, sy, depth, ok := projectPoint(viewProj, view, cam.Viewport, cam.Near, p)
			if !ok {
				visible = false
				break
			}
			f.sx[j] = float32(sx)
			f.sy[j] = float32(sy)
			f.depth += depth
		}
		if !visible {
			r.stats.culled++
			continue
		}
		f.depth /= float64(mf.n)
		f.color = shade(n.Color, normal, r.Light, r.Ambient).Scale(mf.shade)
		r.faces = append(r.faces, f)
	}
}

func (r *Renderer) collectCloud(c *TwinkleCloud, world, viewProj, view mgl64.Mat4, cam *OrbitCamera) {
	dc := drawCloud{start: len(r.points), color: c.Color, uniforms: c.Uniforms}
	ratio := float64(c.Uniforms.PixelRatio)
	if ratio <= 0 {
		ratio = 1
	}
	for i := 0; i < c.Len(); i++ {
		local, seed := c.Point(i)
		sx, sy, _, ok := projectPoint(viewProj, view, cam.Viewport, cam.Near, mgl64.TransformCoordinate(local, world))
		if !ok {
			continue
		}
		size := c.PointSize(i)
		r.points = append(r.points, drawPoint{
			x:      float32(sx),
			y:      float32(sy),
			radius: float32(size * ratio / 2),
			seed:   seed,
		})
	}
	dc.end = len(r.points)
	if dc.end > dc.start {
		r.clouds = append(r.clouds, dc)
	}
}

// collectGrid projects ground lines around the camera target. Lines are
// split into cells so segments behind the near plane drop out individually.
func (r *Renderer) collectGrid(cam *OrbitCamera, viewProj, view mgl64.Mat4) {
	r.lines = r.lines[:0]
	s := r.GridSpacing
	if s <= 0 || r.GridExtent <= 0 {
		return
	}
	cx := math.Round(cam.Target.X()/s) * s
	cz := math.Round(cam.Target.Z()/s) * s
	ext := r.GridExtent
	project := func(x, z float64) (float32, float32, bool) {
		sx, sy, _, ok := projectPoint(viewProj, view, cam.Viewport, cam.Near, mgl64.Vec3{x, 0, z})
		return float32(sx), float32(sy), ok
	}
	for i := -ext; i <= ext; i++ {
		fixed := float64(i) * s
		major := int(math.Round((cx+fixed)/s))%5 == 0
		majorZ := int(math.Round((cz+fixed)/s))%5 == 0
		for j := -ext; j < ext; j++ {
			a := float64(j) * s
			b := a + s
			if x0, y0, ok0 := project(cx+fixed, cz+a); ok0 {
				if x1, y1, ok1 := project(cx+fixed, cz+b); ok1 {
					r.lines = append(r.lines, gridLine{x0, y0, x1, y1, major})
				}
			}
			if x0, y0, ok0 := project(cx+a, cz+fixed); ok0 {
				if x1, y1, ok1 := project(cx+b, cz+fixed); ok1 {
					r.lines = append(r.lines, gridLine{x0, y0, x1, y1, majorZ})
				}
			}
		}
	}
}

// sortFaces orders faces far to near. The sort is stable so coplanar faces
// keep tree order.
func (r *Renderer) sortFaces() {
	slices.SortStableFunc(r.faces, func(a, b drawFace) int {
		return cmp.Compare(b.depth, a.depth)
	})
}

// shade applies Lambert lighting with an ambient floor.
func shade(c Color, normal, light mgl64.Vec3, ambient float64) Color {
	diffuse := math.Max(0, normal.Dot(light))
	return c.Scale(ambient + (1-ambient)*diffuse)
}

func (r *Renderer) drawGrid(target *ebiten.Image) {
	if len(r.lines) == 0 {
		return
	}
	minor := r.GridColor.RGBA()
	major := r.GridColor.Scale(1.5).RGBA()
	for _, l := range r.lines {
		var clr color.Color = minor
		width := float32(1)
		if l.major {
			clr = major
			width = 1.5
		}
		vector.StrokeLine(target, l.x0, l.y0, l.x1, l.y1, width, clr, true)
	}
	r.stats.drawCalls += len(r.lines)
}

// drawFaces submits every face in one DrawTriangles call.
func (r *Renderer) drawFaces(target *ebiten.Image) {
	if len(r.faces) == 0 {
		return
	}
	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
	for i := range r.faces {
		f := &r.faces[i]
		base := uint16(len(r.verts))
		cr, cg, cb, ca := premultiplied(f.color)
		for j := 0; j < f.n; j++ {
			r.verts = append(r.verts, ebiten.Vertex{
				DstX: f.sx[j], DstY: f.sy[j],
				SrcX: 0.5, SrcY: 0.5,
				ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
			})
		}
		for j := 1; j+1 < f.n; j++ {
			r.inds = append(r.inds, base, base+uint16(j), base+uint16(j+1))
		}
	}
	var op ebiten.DrawTrianglesOptions
	op.AntiAlias = true
	target.DrawTriangles(r.verts, r.inds, ensureWhitePixel(), &op)
	r.stats.drawCalls++
}

// drawTwinkles draws each part's points with the twinkle shader, or as flat
// squares when the shader is unavailable.
func (r *Renderer) drawTwinkles(target *ebiten.Image) {
	if len(r.clouds) == 0 {
		return
	}
	shader, err := r.shader.get()
	if err != nil && !r.shaderLogged {
		r.shaderLogged = true
		r.log.Error("twinkle shader unavailable, drawing flat points", zap.Error(err))
	}
	for _, dc := range r.clouds {
		r.buildPointQuads(r.points[dc.start:dc.end], dc.color, dc.uniforms, shader == nil)
		if shader != nil {
			var op ebiten.DrawTrianglesShaderOptions
			op.Uniforms = r.shader.uniformsFor(dc.uniforms)
			op.Blend = BlendAdd.EbitenBlend()
			target.DrawTrianglesShader(r.verts, r.inds, shader, &op)
		} else {
			var op ebiten.DrawTrianglesOptions
			op.Blend = BlendAdd.EbitenBlend()
			target.DrawTriangles(r.verts, r.inds, ensureWhitePixel(), &op)
		}
		r.stats.drawCalls++
	}
}

// buildPointQuads writes one quad per point into the vertex buffers. For the
// shader path SrcX/SrcY carry the offset from the point center; flat points
// bake the blink into the vertex color instead.
func (r *Renderer) buildPointQuads(pts []drawPoint, c Color, u TwinkleUniforms, flat bool) {
	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
	cr, cg, cb, ca := premultiplied(c)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, p := range pts {
		base := uint16(len(r.verts))
		k := float32(1)
		if flat {
			k = float32(twinkleBlink(float64(u.Time), float64(p.seed)))
		}
		for _, cn := range corners {
			v := ebiten.Vertex{
				DstX:    p.x + cn[0]*p.radius,
				DstY:    p.y + cn[1]*p.radius,
				ColorR:  cr * k,
				ColorG:  cg * k,
				ColorB:  cb * k,
				ColorA:  ca * k,
				Custom0: p.seed,
				Custom1: p.radius,
			}
			if flat {
				v.SrcX, v.SrcY = 0.5, 0.5
			} else {
				v.SrcX, v.SrcY = cn[0]*p.radius, cn[1]*p.radius
			}
			r.verts = append(r.verts, v)
		}
		r.inds = append(r.inds, base, base+1, base+2, base, base+2, base+3)
	}
}

// twinkleBlink mirrors the shader's blink curve for the flat fallback.
func twinkleBlink(t, seed float64) float64 {
	return 0.55 + 0.45*math.Sin(t*3+seed*2*math.Pi)
}

// premultiplied returns c as premultiplied float32 vertex components.
func premultiplied(c Color) (r, g, b, a float32) {
	a = float32(clamp01(c.A))
	return float32(clamp01(c.R)) * a, float32(clamp01(c.G)) * a, float32(clamp01(c.B)) * a, a
}

// --- White pixel singleton (no sync.Once, morph is single-threaded) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image used
// as the source for untextured triangles.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}
