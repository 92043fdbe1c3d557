package morph

import "fmt"

// Mode is the vehicle's top-level configuration.
type Mode uint8

const (
	ModeCar    Mode = iota // wheeled car (initial mode)
	ModeFlight             // flying craft, doors become wings
	ModeRobot              // humanoid robot, wheels become joints
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case ModeCar:
		return "car"
	case ModeFlight:
		return "flight"
	case ModeRobot:
		return "robot"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// mustValid panics on an out-of-range mode. A bad mode can only come from a
// programming error, never from user input.
func (m Mode) mustValid() {
	if m > ModeRobot {
		panic(fmt.Sprintf("morph: invalid mode %d", uint8(m)))
	}
}

// ParseMode resolves a mode name produced by Mode.String.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "car":
		return ModeCar, nil
	case "flight":
		return ModeFlight, nil
	case "robot":
		return ModeRobot, nil
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}

// Command is a user-issued discrete command.
type Command uint8

const (
	CommandToggleRobot  Command = iota // car/flight -> robot, robot -> car
	CommandToggleFlight                // car/robot -> flight, flight -> car
	CommandToggleDoor                  // flips DoorOpen, car mode only
)

// String returns the command name as used by scenario scripts.
func (c Command) String() string {
	switch c {
	case CommandToggleRobot:
		return "toggle_robot"
	case CommandToggleFlight:
		return "toggle_flight"
	case CommandToggleDoor:
		return "toggle_door"
	default:
		return fmt.Sprintf("Command(%d)", uint8(c))
	}
}

// ParseCommand resolves a command name produced by Command.String.
func ParseCommand(name string) (Command, error) {
	switch name {
	case "toggle_robot", "robot":
		return CommandToggleRobot, nil
	case "toggle_flight", "flight":
		return CommandToggleFlight, nil
	case "toggle_door", "door":
		return CommandToggleDoor, nil
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// ModeState is the Mode x DoorOpen state machine. All transitions are user
// triggered; there is no terminal state.
type ModeState struct {
	mode     Mode
	doorOpen bool

	// OnChange, when set, is called after every mode transition.
	OnChange func(from, to Mode)
	// OnIgnored, when set, is called when a command has no effect.
	OnIgnored func(cmd Command, mode Mode)
}

// Mode returns the active mode.
func (s *ModeState) Mode() Mode {
	return s.mode
}

// DoorOpen reports whether the doors are open. Always false outside car mode.
func (s *ModeState) DoorOpen() bool {
	return s.doorOpen
}

// ToggleRobot switches car/flight to robot and robot back to car.
func (s *ModeState) ToggleRobot() {
	if s.mode == ModeRobot {
		s.setMode(ModeCar)
		return
	}
	s.setMode(ModeRobot)
}

// ToggleFlight switches car/robot to flight and flight back to car.
func (s *ModeState) ToggleFlight() {
	if s.mode == ModeFlight {
		s.setMode(ModeCar)
		return
	}
	s.setMode(ModeFlight)
}

// ToggleDoor flips DoorOpen in car mode and does nothing otherwise.
func (s *ModeState) ToggleDoor() {
	if s.mode != ModeCar {
		if s.OnIgnored != nil {
			s.OnIgnored(CommandToggleDoor, s.mode)
		}
		return
	}
	s.doorOpen = !s.doorOpen
}

// Apply dispatches cmd to the matching toggle.
func (s *ModeState) Apply(cmd Command) {
	switch cmd {
	case CommandToggleRobot:
		s.ToggleRobot()
	case CommandToggleFlight:
		s.ToggleFlight()
	case CommandToggleDoor:
		s.ToggleDoor()
	default:
		panic(fmt.Sprintf("morph: invalid command %d", uint8(cmd)))
	}
}

func (s *ModeState) setMode(to Mode) {
	from := s.mode
	if from == to {
		return
	}
	if from == ModeCar {
		s.doorOpen = false
	}
	s.mode = to
	if s.OnChange != nil {
		s.OnChange(from, to)
	}
}
