package gpio

import (
	"fmt"
	"log"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// Output is a single output line held for the lifetime of the process.
type Output struct {
	spec  *PinSpec
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	mu    sync.Mutex
	state bool
}

// OpenOutput requests the line described by spec on chipName and drives it
// to the logical off state.
func OpenOutput(chipName string, spec *PinSpec) (*Output, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrChipOpenFailed, chipName, err)
	}

	line, err := chip.RequestLine(spec.LineNum, gpiocdev.AsOutput(spec.Level(false)))
	if err != nil {
		chip.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: line %d: %v", ErrLineRequestFailed, spec.LineNum, err)
	}

	return &Output{spec: spec, chip: chip, line: line}, nil
}

// Set drives the line to the logical state on.
func (o *Output) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.line.SetValue(o.spec.Level(on)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSetValueFailed, o.spec, err)
	}
	o.state = on
	return nil
}

// State returns the last logical state written.
func (o *Output) State() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Close turns the output off and releases the line and chip.
func (o *Output) Close() error {
	if err := o.Set(false); err != nil {
		log.Printf("failed to reset %s to off state: %s", o.spec, err)
	}
	if err := o.line.Close(); err != nil {
		log.Printf("failed to close GPIO line %d: %s", o.spec.LineNum, err)
	}
	return o.chip.Close()
}

func (o *Output) String() string {
	return o.spec.String()
}
