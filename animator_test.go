package morph

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func partSpec(t *testing.T, name string) *PartPoseSpec {
	t.Helper()
	parts := DefaultParts()
	for i := range parts {
		if parts[i].Name == name {
			return &parts[i]
		}
	}
	t.Fatalf("no part %q", name)
	return nil
}

func newTestAnimator(t *testing.T, name string) *PartAnimator {
	t.Helper()
	spec := partSpec(t, name)
	return NewPartAnimator(spec, NewPart(spec.Name, spec.Geometry, spec.Color))
}

func TestDefaultPartsTable(t *testing.T) {
	parts := DefaultParts()
	if len(parts) != 12 {
		t.Fatalf("len(DefaultParts) = %d, want 12", len(parts))
	}
	seen := map[string]bool{}
	for _, p := range parts {
		if seen[p.Name] {
			t.Errorf("duplicate part %q", p.Name)
		}
		seen[p.Name] = true
		if _, ok := secondaryMotion[p.Behavior]; !ok {
			t.Errorf("%s: behavior %s has no strategy", p.Name, p.Behavior)
		}
		if p.Geometry.Volume() <= 0 {
			t.Errorf("%s: non-positive volume", p.Name)
		}
	}
	for _, name := range []string{"head", "leg_l", "leg_r"} {
		spec := partSpec(t, name)
		if spec.Flight != nil {
			t.Errorf("%s: unexpected flight pose", name)
		}
		if spec.PoseFor(ModeFlight) != spec.Car {
			t.Errorf("%s: flight pose does not fall back to car", name)
		}
	}
}

func TestFirstUpdateSnapsToPose(t *testing.T) {
	a := newTestAnimator(t, "torso")
	cur := a.Update(Frame{Mode: ModeRobot, Dt: 1.0 / 60})

	want := a.Spec.Robot
	assertVec(t, "position", cur.Position, want.Position, 1e-12)
	if quatAngle(cur.Base, want.Quat()) > 1e-6 {
		t.Errorf("base orientation off target by %v rad", quatAngle(cur.Base, want.Quat()))
	}
	assertVec(t, "node position", a.Node.Position, want.Position, 1e-12)
}

func TestSmoothingConvergesWithoutOvershoot(t *testing.T) {
	for _, name := range []string{"torso", "door_left", "leg_r", "wheel_rear_left"} {
		t.Run(name, func(t *testing.T) {
			a := newTestAnimator(t, name)
			a.Update(Frame{Mode: ModeCar})
			start := a.Current()
			target := a.Spec.PoseFor(ModeRobot)
			targetRot := target.Quat()

			prevDist := start.Position.Sub(target.Position).Len()
			prevAngle := quatAngle(start.Base, targetRot)
			for i := 0; i < 90; i++ {
				cur := a.Update(Frame{Mode: ModeRobot, Dt: 1.0 / 60, Elapsed: float64(i) / 60})
				dist := cur.Position.Sub(target.Position).Len()
				angle := quatAngle(cur.Base, targetRot)

				if prevDist > 1e-9 && dist >= prevDist {
					t.Fatalf("frame %d: distance %v did not decrease from %v", i, dist, prevDist)
				}
				if prevAngle > 1e-6 && angle >= prevAngle {
					t.Fatalf("frame %d: angle %v did not decrease from %v", i, angle, prevAngle)
				}
				// Still on the start side of the target.
				if d := target.Position.Sub(cur.Position).Dot(target.Position.Sub(start.Position)); d < -1e-12 {
					t.Fatalf("frame %d: position overshot the target", i)
				}
				prevDist, prevAngle = dist, angle
			}
			if prevDist > 0.05 {
				t.Errorf("distance after 1.5s = %v, want close to target", prevDist)
			}
		})
	}
}

func TestSmoothFactorClamped(t *testing.T) {
	a := newTestAnimator(t, "torso")
	tests := []struct {
		dt, want float64
	}{
		{0, 0},
		{1.0 / 60, 4.0 / 60},
		{0.25, 1},
		{2, 1},
	}
	for _, tt := range tests {
		if got := a.smoothFactor(tt.dt); !approxEqual(got, tt.want, 1e-12) {
			t.Errorf("smoothFactor(%v) = %v, want %v", tt.dt, got, tt.want)
		}
	}

	a.Update(Frame{Mode: ModeCar})
	cur := a.Update(Frame{Mode: ModeRobot, Dt: 0.5})
	assertVec(t, "position after long frame", cur.Position, a.Spec.Robot.Position, 1e-12)
}

func TestWheelSecondary(t *testing.T) {
	spec := partSpec(t, "wheel_front_left")
	spin := 1.3
	tests := []struct {
		mode Mode
		want mgl64.Quat
	}{
		{ModeCar, mgl64.QuatRotate(spin, axisX)},
		{ModeFlight, mgl64.QuatRotate(spin, axisX)},
		{ModeRobot, mgl64.QuatIdent()},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got := wheelSecondary(spec, Frame{Mode: tt.mode, WheelSpin: spin})
			if quatAngle(got, tt.want) > 1e-6 {
				t.Errorf("secondary = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDoorSecondary(t *testing.T) {
	left := partSpec(t, "door_left")
	right := partSpec(t, "door_right")
	elapsed := 0.37
	flap := math.Sin(elapsed*flapFrequency) * flapAmplitude

	tests := []struct {
		name  string
		spec  *PartPoseSpec
		frame Frame
		want  mgl64.Quat
	}{
		{"car closed", left, Frame{Mode: ModeCar}, mgl64.QuatIdent()},
		{"car open left", left, Frame{Mode: ModeCar, DoorOpen: true}, mgl64.QuatRotate(doorOpenAngle, axisY)},
		{"car open right", right, Frame{Mode: ModeCar, DoorOpen: true}, mgl64.QuatRotate(-doorOpenAngle, axisY)},
		{"flight left", left, Frame{Mode: ModeFlight, Elapsed: elapsed}, mgl64.QuatRotate(flap, axisZ)},
		{"flight right", right, Frame{Mode: ModeFlight, Elapsed: elapsed}, mgl64.QuatRotate(-flap, axisZ)},
		{"flight ignores door flag", left, Frame{Mode: ModeFlight, DoorOpen: true, Elapsed: elapsed}, mgl64.QuatRotate(flap, axisZ)},
		{"robot", left, Frame{Mode: ModeRobot, DoorOpen: true, Elapsed: elapsed}, mgl64.QuatIdent()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := doorSecondary(tt.spec, tt.frame)
			if quatAngle(got, tt.want) > 1e-6 {
				t.Errorf("secondary = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlainAndDriverHaveNoSecondary(t *testing.T) {
	for _, name := range []string{"torso", "driver_head", "driver_body"} {
		a := newTestAnimator(t, name)
		cur := a.Update(Frame{Mode: ModeFlight, WheelSpin: 5, Elapsed: 2, DoorOpen: true})
		if quatAngle(cur.Secondary, mgl64.QuatIdent()) > 1e-6 {
			t.Errorf("%s: secondary = %v, want identity", name, cur.Secondary)
		}
		if quatAngle(cur.Final, cur.Base) > 1e-6 {
			t.Errorf("%s: final differs from base", name)
		}
	}
}

func TestFinalIsBaseTimesSecondary(t *testing.T) {
	a := newTestAnimator(t, "wheel_front_right")
	cur := a.Update(Frame{Mode: ModeFlight, WheelSpin: 0.8})
	want := a.Spec.Flight.Quat().Mul(mgl64.QuatRotate(0.8, axisX))
	if quatAngle(cur.Final, want) > 1e-6 {
		t.Errorf("final = %v, want %v", cur.Final, want)
	}
	if quatAngle(a.Node.Rotation, want) > 1e-6 {
		t.Error("node rotation not written")
	}
}

func TestAnimatorWritesCloudUniforms(t *testing.T) {
	a := newTestAnimator(t, "torso")
	a.Node.Cloud = NewTwinkleCloud(7, 0)
	a.Update(Frame{Mode: ModeCar, Elapsed: 3.5, PixelRatio: 2})

	c := a.Node.Cloud
	if c.Uniforms.Time != 3.5 || c.Uniforms.PixelRatio != 2 {
		t.Errorf("uniforms = %+v, want Time 3.5 PixelRatio 2", c.Uniforms)
	}
	if c.Len() == 0 {
		t.Error("cloud layout not built")
	}
}

func TestUnknownBehaviorPanics(t *testing.T) {
	spec := PartPoseSpec{Name: "odd", Behavior: BehaviorKind(42), Geometry: Box(1, 1, 1)}
	mustPanic(t, "NewPartAnimator", func() { NewPartAnimator(&spec, NewGroup("odd")) })
}

func TestSlerpShortest(t *testing.T) {
	from := mgl64.QuatIdent()
	to := mgl64.QuatRotate(0.5, axisY).Scale(-1) // same rotation, opposite hemisphere
	mid := slerpShortest(from, to, 0.5)
	if got := quatAngle(mid, mgl64.QuatRotate(0.25, axisY)); got > 1e-6 {
		t.Errorf("midpoint off by %v rad", got)
	}
}
