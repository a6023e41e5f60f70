package relay

import "fmt"

// State is the relay state machine state
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// MarshalText lets State appear by name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "active":
		*s = Active
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}
