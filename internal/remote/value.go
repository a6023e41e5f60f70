package remote

import (
	"context"
	"fmt"
	"strings"
)

// Value is a state in the remote device's vocabulary, for example "ON",
// "true" or "1".
type Value string

func (v Value) String() string {
	return string(v)
}

// Device is a handle to one remote endpoint. SetState returns once the value
// has been handed off; it does not wait for the device to acknowledge it.
type Device interface {
	SetState(v Value) error
}

// Driver creates a Device and places it in a Slot when the endpoint becomes
// usable. Some drivers fill the slot immediately, others only after discovery
// or a broker connection completes.
type Driver interface {
	Attach(ctx context.Context, slot *Slot) error
	Close() error
	String() string
}

// ParseBool interprets a value as a boolean level.
func ParseBool(v Value) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(v))) {
	case "true", "on", "1", "yes", "open":
		return true, nil
	case "false", "off", "0", "no", "closed":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidValue, string(v))
	}
}
