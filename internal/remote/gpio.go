package remote

import (
	"context"
	"fmt"
	"log"

	"github.com/larsks/doorbell/internal/gpio"
)

// GPIOConfig represents GPIO relay driver configuration
type GPIOConfig struct {
	Chip string `mapstructure:"chip"`
	Pin  string `mapstructure:"pin"`
}

// GPIOFactory implements Factory for a relay on a GPIO line
type GPIOFactory struct{}

// CreateDriver creates a new GPIO driver
func (f *GPIOFactory) CreateDriver(config map[string]any) (Driver, error) {
	cfg, spec, err := f.parseConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gpio config: %w", err)
	}
	return &GPIODriver{chip: cfg.Chip, spec: spec}, nil
}

// ValidateConfig validates GPIO configuration
func (f *GPIOFactory) ValidateConfig(config map[string]any) error {
	_, _, err := f.parseConfig(config)
	return err
}

func (f *GPIOFactory) parseConfig(config map[string]any) (*GPIOConfig, *gpio.PinSpec, error) {
	cfg := &GPIOConfig{Chip: "gpiochip0"}
	if err := decodeConfig(config, cfg); err != nil {
		return nil, nil, err
	}
	if cfg.Pin == "" {
		return nil, nil, fmt.Errorf("%w: pin", ErrMissingConfigKey)
	}

	spec, err := gpio.ParsePin(cfg.Pin)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, spec, nil
}

// GPIODevice maps boolean values onto an output line. Writes are local and
// fast, so no dispatcher is used.
type GPIODevice struct {
	output *gpio.Output
}

func (d *GPIODevice) SetState(v Value) error {
	on, err := ParseBool(v)
	if err != nil {
		return err
	}
	if err := d.output.Set(on); err != nil {
		log.Printf("%s: %v", d, err)
		return err
	}
	return nil
}

func (d *GPIODevice) String() string {
	return fmt.Sprintf("GPIODevice(%s)", d.output)
}

// GPIODriver requests the line on Attach
type GPIODriver struct {
	chip   string
	spec   *gpio.PinSpec
	output *gpio.Output
}

func (d *GPIODriver) Attach(ctx context.Context, slot *Slot) error {
	log.Printf("initializing gpio relay on %s %s", d.chip, d.spec)
	output, err := gpio.OpenOutput(d.chip, d.spec)
	if err != nil {
		return err
	}
	d.output = output
	slot.Set(&GPIODevice{output: output})
	return nil
}

func (d *GPIODriver) Close() error {
	if d.output == nil {
		return nil
	}
	log.Printf("closing gpio relay %s", d.spec)
	return d.output.Close()
}

func (d *GPIODriver) String() string {
	return fmt.Sprintf("GPIODriver(%s)", d.spec)
}

func init() {
	MustRegister("gpio", &GPIOFactory{})
}
