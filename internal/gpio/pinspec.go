package gpio

import (
	"fmt"
	"strconv"
	"strings"
)

// Polarity represents the electrical polarity of a GPIO pin
type Polarity int

const (
	ActiveHigh Polarity = iota
	ActiveLow
)

// PinSpec is a parsed output pin specification
type PinSpec struct {
	// LineNum is the GPIO line number (e.g., 17 for GPIO17)
	LineNum  int
	Polarity Polarity
}

// ParsePin parses an output pin specification.
// Format: "pin[:active-high|active-low]"
// Examples: "GPIO17", "GPIO17:active-low", "17"
func ParsePin(pinSpec string) (*PinSpec, error) {
	parts := strings.Split(strings.TrimSpace(pinSpec), ":")

	lineNum, err := ParsePinNumber(parts[0])
	if err != nil {
		return nil, err
	}

	polarity := ActiveHigh
	for _, part := range parts[1:] {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "active-high":
			polarity = ActiveHigh
		case "active-low":
			polarity = ActiveLow
		default:
			return nil, fmt.Errorf("%w: unknown parameter %q in %s", ErrInvalidPinSpec, part, pinSpec)
		}
	}

	return &PinSpec{LineNum: lineNum, Polarity: polarity}, nil
}

// ParsePinNumber accepts "GPIO<number>" or "<number>"
func ParsePinNumber(pinName string) (int, error) {
	numStr := pinName
	if strings.HasPrefix(strings.ToUpper(pinName), "GPIO") {
		numStr = pinName[len("GPIO"):]
	}

	lineNum, err := strconv.Atoi(numStr)
	if err != nil || lineNum < 0 {
		return 0, fmt.Errorf("%w: %q (expected GPIO<number> or <number>)", ErrInvalidPinSpec, pinName)
	}
	return lineNum, nil
}

// Level returns the physical line value for a logical state.
func (ps *PinSpec) Level(on bool) int {
	if on == (ps.Polarity == ActiveHigh) {
		return 1
	}
	return 0
}

func (p Polarity) String() string {
	switch p {
	case ActiveHigh:
		return "active-high"
	case ActiveLow:
		return "active-low"
	default:
		return "unknown"
	}
}

func (ps *PinSpec) String() string {
	return fmt.Sprintf("GPIO%d:%s", ps.LineNum, ps.Polarity)
}
