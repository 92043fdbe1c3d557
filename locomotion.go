package morph

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Tuning holds the per-frame locomotion constants. Rates are applied once per
// tick and are not scaled by the frame time.
type Tuning struct {
	Accel          float64 `mapstructure:"accel"`
	MaxSpeed       float64 `mapstructure:"max_speed"`
	Deceleration   float64 `mapstructure:"deceleration"`
	TurnRate       float64 `mapstructure:"turn_rate"`
	BankAngle      float64 `mapstructure:"bank_angle"`
	BankSmoothing  float64 `mapstructure:"bank_smoothing"`
	FlightAltitude float64 `mapstructure:"flight_altitude"`
	AltitudeWobble float64 `mapstructure:"altitude_wobble"`
	AltitudeFreq   float64 `mapstructure:"altitude_freq"`
	AltSmoothing   float64 `mapstructure:"altitude_smoothing"`
	WheelSpinRatio float64 `mapstructure:"wheel_spin_ratio"`
}

// DefaultTuning returns the stock locomotion constants.
func DefaultTuning() Tuning {
	return Tuning{
		Accel:          0.008,
		MaxSpeed:       0.35,
		Deceleration:   0.96,
		TurnRate:       0.035,
		BankAngle:      0.35,
		BankSmoothing:  0.1,
		FlightAltitude: 3.0,
		AltitudeWobble: 0.3,
		AltitudeFreq:   1.5,
		AltSmoothing:   0.05,
		WheelSpinRatio: 3,
	}
}

// Validate reports the first constant that would break the integrator's
// invariants.
func (t Tuning) Validate() error {
	switch {
	case t.Accel <= 0:
		return fmt.Errorf("accel must be positive, got %v", t.Accel)
	case t.MaxSpeed <= 0:
		return fmt.Errorf("max_speed must be positive, got %v", t.MaxSpeed)
	case t.Deceleration <= 0 || t.Deceleration >= 1:
		return fmt.Errorf("deceleration must be in (0, 1), got %v", t.Deceleration)
	case t.TurnRate < 0:
		return fmt.Errorf("turn_rate must not be negative, got %v", t.TurnRate)
	case t.BankSmoothing <= 0 || t.BankSmoothing > 1:
		return fmt.Errorf("bank_smoothing must be in (0, 1], got %v", t.BankSmoothing)
	case t.AltSmoothing <= 0 || t.AltSmoothing > 1:
		return fmt.Errorf("altitude_smoothing must be in (0, 1], got %v", t.AltSmoothing)
	}
	return nil
}

// AccelFor returns the per-frame acceleration for mode.
func (t Tuning) AccelFor(m Mode) float64 {
	m.mustValid()
	if m == ModeRobot {
		return t.Accel * 0.5
	}
	return t.Accel
}

// MaxSpeedFor returns the forward speed limit for mode. Reverse is limited to
// half of it.
func (t Tuning) MaxSpeedFor(m Mode) float64 {
	switch m {
	case ModeCar:
		return t.MaxSpeed
	case ModeFlight:
		return t.MaxSpeed * 1.5
	case ModeRobot:
		return t.MaxSpeed * 0.4
	default:
		panic(fmt.Sprintf("morph: invalid mode %d", uint8(m)))
	}
}

// TurnRateFor returns the per-frame heading change for mode.
func (t Tuning) TurnRateFor(m Mode) float64 {
	switch m {
	case ModeCar:
		return t.TurnRate
	case ModeFlight:
		return t.TurnRate * 1.2
	case ModeRobot:
		return t.TurnRate * 0.8
	default:
		panic(fmt.Sprintf("morph: invalid mode %d", uint8(m)))
	}
}

// steerEpsilon is the speed below which the vehicle counts as stationary.
const steerEpsilon = 1e-3

// stopThreshold is the speed under which decay snaps velocity to zero.
const stopThreshold = 1e-5

// BodyState is the integrated locomotion state of the whole vehicle.
type BodyState struct {
	Velocity  float64
	Heading   float64
	BankAngle float64
	Altitude  float64
	Position  mgl64.Vec3
}

// Integrator owns BodyState and advances it once per frame.
type Integrator struct {
	Tuning Tuning

	state     BodyState
	wheelSpin float64
}

// NewIntegrator creates an integrator at rest at the origin.
func NewIntegrator(t Tuning) *Integrator {
	return &Integrator{Tuning: t}
}

// State returns a copy of the current body state.
func (g *Integrator) State() BodyState {
	return g.state
}

// WheelSpin returns the accumulated wheel rotation in radians. It grows
// without bound; consumers only use it through periodic functions.
func (g *Integrator) WheelSpin() float64 {
	return g.wheelSpin
}

// Step advances the body by one frame. elapsed is the wall-clock session time
// in seconds and drives the flight altitude oscillation.
func (g *Integrator) Step(in InputSnapshot, mode Mode, elapsed float64) BodyState {
	t := &g.Tuning
	s := &g.state

	maxSpeed := t.MaxSpeedFor(mode)
	accel := t.AccelFor(mode)

	switch {
	case in.Forward:
		s.Velocity += accel
	case in.Backward:
		s.Velocity -= accel
	default:
		s.Velocity *= t.Deceleration
		if math.Abs(s.Velocity) < stopThreshold {
			s.Velocity = 0
		}
	}
	s.Velocity = mgl64.Clamp(s.Velocity, -0.5*maxSpeed, maxSpeed)

	if steer := steerSign(s.Velocity, mode); steer != 0 {
		rate := t.TurnRateFor(mode)
		if in.TurnLeft {
			s.Heading += rate * steer
		}
		if in.TurnRight {
			s.Heading -= rate * steer
		}
	}

	var bankTarget float64
	if mode == ModeFlight {
		switch {
		case in.TurnLeft && !in.TurnRight:
			bankTarget = t.BankAngle
		case in.TurnRight && !in.TurnLeft:
			bankTarget = -t.BankAngle
		}
	}
	s.BankAngle = lerp(s.BankAngle, bankTarget, t.BankSmoothing)

	var altTarget float64
	if mode == ModeFlight {
		altTarget = t.FlightAltitude + t.AltitudeWobble*math.Sin(elapsed*t.AltitudeFreq)
	}
	s.Altitude = lerp(s.Altitude, altTarget, t.AltSmoothing)

	sin, cos := math.Sincos(s.Heading)
	s.Position = mgl64.Vec3{
		s.Position.X() + sin*s.Velocity,
		s.Altitude,
		s.Position.Z() + cos*s.Velocity,
	}

	g.wheelSpin += s.Velocity * t.WheelSpinRatio
	return *s
}

// Apply writes the body transform onto the vehicle group. The orientation is
// the XYZ Euler triple (bank, heading, 0).
func (g *Integrator) Apply(group *Node) {
	group.SetPosition(g.state.Position)
	group.SetEuler(g.state.BankAngle, g.state.Heading, 0)
}

// steerSign follows the direction of travel so that reversing turns the
// other way. Flying and walking can turn on the spot.
func steerSign(velocity float64, mode Mode) float64 {
	switch {
	case velocity > steerEpsilon:
		return 1
	case velocity < -steerEpsilon:
		return -1
	case mode == ModeFlight || mode == ModeRobot:
		return 1
	default:
		return 0
	}
}
