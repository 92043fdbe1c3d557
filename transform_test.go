package morph

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec(t *testing.T, name string, got, want mgl64.Vec3, eps float64) {
	t.Helper()
	if !got.ApproxEqualThreshold(want, eps) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestLocalTransformIdentity(t *testing.T) {
	n := NewGroup("n")
	if !computeLocalTransform(n).ApproxEqual(mgl64.Ident4()) {
		t.Errorf("local transform of a fresh node = %v, want identity", computeLocalTransform(n))
	}
}

func TestLocalTransformOrder(t *testing.T) {
	// Scale, then rotate 90 degrees about Y, then translate.
	n := NewGroup("n")
	n.SetScale(mgl64.Vec3{2, 2, 2})
	n.SetEuler(0, math.Pi/2, 0)
	n.SetPosition(mgl64.Vec3{10, 0, 0})

	got := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, computeLocalTransform(n))
	// (1,0,0) -> scale (2,0,0) -> rotate about +Y by 90 degrees (0,0,-2) -> translate.
	assertVec(t, "point", got, mgl64.Vec3{10, 0, -2}, 1e-9)
}

func TestWorldTransformNesting(t *testing.T) {
	root := NewGroup("root")
	parent := NewGroup("parent")
	child := NewGroup("child")
	root.AddChild(parent)
	parent.AddChild(child)

	parent.SetPosition(mgl64.Vec3{0, 0, 5})
	parent.SetEuler(0, math.Pi/2, 0)
	child.SetPosition(mgl64.Vec3{0, 0, 1})
	updateWorldTransform(root, mgl64.Ident4(), false)

	// Child is one unit along the parent's +Z, which the parent's yaw turns
	// into world +X.
	assertVec(t, "child world position", child.WorldPosition(), mgl64.Vec3{1, 0, 5}, 1e-9)
}

func TestWorldTransformDirtyPropagation(t *testing.T) {
	root := NewGroup("root")
	parent := NewGroup("parent")
	child := NewGroup("child")
	root.AddChild(parent)
	parent.AddChild(child)
	child.SetPosition(mgl64.Vec3{1, 0, 0})
	updateWorldTransform(root, mgl64.Ident4(), false)

	if child.transformDirty || parent.transformDirty {
		t.Fatal("nodes still dirty after update")
	}

	parent.SetPosition(mgl64.Vec3{0, 3, 0})
	updateWorldTransform(root, mgl64.Ident4(), false)
	assertVec(t, "child after parent move", child.WorldPosition(), mgl64.Vec3{1, 3, 0}, 1e-9)
}

func TestWorldTransformSkipsCleanSubtrees(t *testing.T) {
	root := NewGroup("root")
	child := NewGroup("child")
	root.AddChild(child)
	updateWorldTransform(root, mgl64.Ident4(), false)

	// Writing the field directly without marking dirty must not be picked up.
	child.Position = mgl64.Vec3{9, 9, 9}
	updateWorldTransform(root, mgl64.Ident4(), false)
	assertVec(t, "stale position", child.WorldPosition(), mgl64.Vec3{}, 1e-9)

	child.MarkDirty()
	updateWorldTransform(root, mgl64.Ident4(), false)
	assertVec(t, "after MarkDirty", child.WorldPosition(), mgl64.Vec3{9, 9, 9}, 1e-9)
}

func TestLocalWorldRoundTrip(t *testing.T) {
	root := NewGroup("root")
	n := NewGroup("n")
	root.AddChild(n)
	n.SetPosition(mgl64.Vec3{1, 2, 3})
	n.SetEuler(0.3, -1.1, 0.2)
	n.SetScale(mgl64.Vec3{1, 2, 0.5})
	updateWorldTransform(root, mgl64.Ident4(), false)

	p := mgl64.Vec3{0.5, -0.25, 4}
	assertVec(t, "round trip", n.WorldToLocal(n.LocalToWorld(p)), p, 1e-9)
}

func TestEulerQuatOrder(t *testing.T) {
	tests := []struct {
		name  string
		euler mgl64.Vec3
		in    mgl64.Vec3
		want  mgl64.Vec3
	}{
		{"yaw", mgl64.Vec3{0, math.Pi / 2, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0}},
		{"pitch", mgl64.Vec3{math.Pi / 2, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}},
		{"roll", mgl64.Vec3{0, 0, math.Pi / 2}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eulerQuat(tt.euler).Rotate(tt.in)
			assertVec(t, "rotated", got, tt.want, 1e-9)
		})
	}
}
