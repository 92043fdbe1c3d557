package morph

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// twinkleShaderSrc draws one soft, blinking point per quad. srcPos carries the
// offset from the point center in pixels; custom.x is the point's seed and
// custom.y its radius.
const twinkleShaderSrc = `//kage:unit pixels
package main

var Time float
var PixelRatio float

func Fragment(dstPos vec4, srcPos vec2, color vec4, custom vec4) vec4 {
	r := custom.y
	d := length(srcPos) / r
	if d > 1 {
		discard()
	}
	edge := clamp((1-d)*r*PixelRatio*0.5, 0, 1)
	glow := (1 - d) * (1 - d)
	blink := 0.55 + 0.45*sin(Time*3.0+custom.x*6.2831853)
	return color * edge * glow * blink
}
`

// twinkleShader compiles the shader on first use. A compile failure is
// remembered so the renderer can fall back to flat points without retrying
// every frame.
type twinkleShader struct {
	shader   *ebiten.Shader
	err      error
	compiled bool
	uniforms map[string]any
}

func (t *twinkleShader) get() (*ebiten.Shader, error) {
	if !t.compiled {
		t.compiled = true
		s, err := ebiten.NewShader([]byte(twinkleShaderSrc))
		if err != nil {
			t.err = fmt.Errorf("compile twinkle shader: %w", err)
		} else {
			t.shader = s
		}
	}
	return t.shader, t.err
}

// uniformsFor fills the reused uniform map from u.
func (t *twinkleShader) uniformsFor(u TwinkleUniforms) map[string]any {
	if t.uniforms == nil {
		t.uniforms = make(map[string]any, 2)
	}
	t.uniforms["Time"] = u.Time
	t.uniforms["PixelRatio"] = u.PixelRatio
	return t.uniforms
}
