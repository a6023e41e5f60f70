package remote

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// DummyConfig represents dummy driver configuration
type DummyConfig struct {
	// AttachDelay postpones filling the slot, which simulates a device
	// that is discovered some time after startup.
	AttachDelay time.Duration `mapstructure:"attach-delay"`
	Name        string        `mapstructure:"name"`
}

// DummyFactory implements Factory for dummy drivers
type DummyFactory struct{}

// CreateDriver creates a new dummy driver
func (f *DummyFactory) CreateDriver(config map[string]any) (Driver, error) {
	cfg, err := f.parseConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dummy config: %w", err)
	}
	return NewDummyDriver(cfg), nil
}

// ValidateConfig validates dummy configuration
func (f *DummyFactory) ValidateConfig(config map[string]any) error {
	_, err := f.parseConfig(config)
	return err
}

func (f *DummyFactory) parseConfig(config map[string]any) (*DummyConfig, error) {
	cfg := &DummyConfig{Name: "dummy"}
	if err := decodeConfig(config, cfg); err != nil {
		return nil, err
	}
	if cfg.AttachDelay < 0 {
		return nil, fmt.Errorf("%w: attach-delay must be non-negative", ErrInvalidConfig)
	}
	return cfg, nil
}

// DummyDevice records the values it receives.
type DummyDevice struct {
	name   string
	mu     sync.Mutex
	values []Value
	err    error
}

func NewDummyDevice(name string) *DummyDevice {
	return &DummyDevice{name: name}
}

func (d *DummyDevice) SetState(v Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	log.Printf("%s: set state %s", d.name, v)
	d.values = append(d.values, v)
	return d.err
}

// FailWith makes subsequent SetState calls return err after recording the value.
func (d *DummyDevice) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Values returns a copy of every value received so far.
func (d *DummyDevice) Values() []Value {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Value(nil), d.values...)
}

// Last returns the most recent value, if any.
func (d *DummyDevice) Last() (Value, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.values) == 0 {
		return "", false
	}
	return d.values[len(d.values)-1], true
}

func (d *DummyDevice) String() string {
	return fmt.Sprintf("DummyDevice(%s)", d.name)
}

// DummyDriver attaches a DummyDevice, optionally after a delay.
type DummyDriver struct {
	config DummyConfig
	device *DummyDevice
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDummyDriver(cfg *DummyConfig) *DummyDriver {
	return &DummyDriver{
		config: *cfg,
		device: NewDummyDevice(cfg.Name),
	}
}

// Device returns the device this driver attaches.
func (d *DummyDriver) Device() *DummyDevice {
	return d.device
}

func (d *DummyDriver) Attach(ctx context.Context, slot *Slot) error {
	if d.config.AttachDelay == 0 {
		slot.Set(d.device)
		return nil
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case <-ctx.Done():
		case <-time.After(d.config.AttachDelay):
			slot.Set(d.device)
		}
	}()
	return nil
}

func (d *DummyDriver) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	return nil
}

func (d *DummyDriver) String() string {
	return fmt.Sprintf("DummyDriver(%s)", d.config.Name)
}

func init() {
	MustRegister("dummy", &DummyFactory{})
}
