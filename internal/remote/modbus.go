package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// ModbusConfig represents Modbus-TCP coil driver configuration
type ModbusConfig struct {
	Address string        `mapstructure:"address"`
	SlaveID byte          `mapstructure:"slave-id"`
	Coil    uint16        `mapstructure:"coil"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ModbusFactory implements Factory for a relay coil on a Modbus-TCP device
type ModbusFactory struct{}

// CreateDriver creates a new Modbus driver
func (f *ModbusFactory) CreateDriver(config map[string]any) (Driver, error) {
	cfg, err := f.parseConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse modbus config: %w", err)
	}
	return &ModbusDriver{config: *cfg}, nil
}

// ValidateConfig validates Modbus configuration
func (f *ModbusFactory) ValidateConfig(config map[string]any) error {
	_, err := f.parseConfig(config)
	return err
}

func (f *ModbusFactory) parseConfig(config map[string]any) (*ModbusConfig, error) {
	cfg := &ModbusConfig{SlaveID: 1, Timeout: 2 * time.Second}
	if err := decodeConfig(config, cfg); err != nil {
		return nil, err
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: address", ErrMissingConfigKey)
	}
	return cfg, nil
}

// coilWriter is the subset of modbus.Client used by ModbusDevice.
type coilWriter interface {
	WriteSingleCoil(address, value uint16) (results []byte, err error)
}

// ModbusDevice writes a single coil: on for a true value, off otherwise.
type ModbusDevice struct {
	address    string
	coil       uint16
	client     coilWriter
	dispatcher *Dispatcher
}

func newModbusDevice(address string, coil uint16, client coilWriter) *ModbusDevice {
	d := &ModbusDevice{address: address, coil: coil, client: client}
	d.dispatcher = NewDispatcher(d.String(), d.send)
	return d
}

func (d *ModbusDevice) SetState(v Value) error {
	if _, err := ParseBool(v); err != nil {
		return err
	}
	return d.dispatcher.SetState(v)
}

func (d *ModbusDevice) send(v Value) error {
	on, err := ParseBool(v)
	if err != nil {
		return err
	}

	value := coilOff
	if on {
		value = coilOn
	}
	if _, err := d.client.WriteSingleCoil(d.coil, value); err != nil {
		return fmt.Errorf("failed to write coil %d: %w", d.coil, err)
	}
	return nil
}

func (d *ModbusDevice) String() string {
	return fmt.Sprintf("ModbusDevice(%s coil %d)", d.address, d.coil)
}

// ModbusDriver attaches a coil device. The TCP connection is opened lazily
// by the first write.
type ModbusDriver struct {
	config  ModbusConfig
	handler *modbus.TCPClientHandler
	device  *ModbusDevice
}

func (d *ModbusDriver) Attach(ctx context.Context, slot *Slot) error {
	handler := modbus.NewTCPClientHandler(d.config.Address)
	handler.Timeout = d.config.Timeout
	handler.SlaveId = d.config.SlaveID
	d.handler = handler

	d.device = newModbusDevice(d.config.Address, d.config.Coil, modbus.NewClient(handler))
	slot.Set(d.device)
	return nil
}

func (d *ModbusDriver) Close() error {
	if d.device != nil {
		d.device.dispatcher.Close() //nolint:errcheck
	}
	if d.handler != nil {
		return d.handler.Close()
	}
	return nil
}

func (d *ModbusDriver) String() string {
	return fmt.Sprintf("ModbusDriver(%s coil %d)", d.config.Address, d.config.Coil)
}

func init() {
	MustRegister("modbus", &ModbusFactory{})
}
