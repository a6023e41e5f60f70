package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TasmotaConfig represents Tasmota driver configuration
type TasmotaConfig struct {
	Address string        `mapstructure:"address"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TasmotaFactory implements Factory for Tasmota drivers
type TasmotaFactory struct{}

// CreateDriver creates a new Tasmota driver
func (f *TasmotaFactory) CreateDriver(config map[string]any) (Driver, error) {
	cfg, err := f.parseConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Tasmota config: %w", err)
	}
	return &TasmotaDriver{device: NewTasmotaDevice(cfg.Address, cfg.Timeout)}, nil
}

// ValidateConfig validates Tasmota configuration
func (f *TasmotaFactory) ValidateConfig(config map[string]any) error {
	_, err := f.parseConfig(config)
	return err
}

func (f *TasmotaFactory) parseConfig(config map[string]any) (*TasmotaConfig, error) {
	cfg := &TasmotaConfig{Timeout: 5 * time.Second}
	if err := decodeConfig(config, cfg); err != nil {
		return nil, err
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: address", ErrMissingConfigKey)
	}
	if _, err := url.Parse(normalizeAddress(cfg.Address)); err != nil {
		return nil, fmt.Errorf("%w: invalid address %s: %v", ErrInvalidConfig, cfg.Address, err)
	}
	return cfg, nil
}

func normalizeAddress(address string) string {
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return strings.TrimSuffix(address, "/")
}

// TasmotaResponse represents the JSON response from Tasmota devices
type TasmotaResponse struct {
	Power string `json:"POWER"`
}

// TasmotaDevice drives the power relay of a Tasmota device over HTTP.
// Values are sent verbatim as the argument of the Power command.
type TasmotaDevice struct {
	address    string
	client     *http.Client
	disabled   bool
	mutex      sync.RWMutex
	dispatcher *Dispatcher
}

// NewTasmotaDevice creates a device for the given address
func NewTasmotaDevice(address string, timeout time.Duration) *TasmotaDevice {
	d := &TasmotaDevice{
		address: normalizeAddress(address),
		client: &http.Client{
			Timeout: timeout,
		},
	}
	d.dispatcher = NewDispatcher(d.String(), d.send)
	return d
}

// SetState hands v to the dispatcher
func (d *TasmotaDevice) SetState(v Value) error {
	return d.dispatcher.SetState(v)
}

func (d *TasmotaDevice) send(v Value) error {
	_, err := d.sendCommand("Power " + string(v))
	if err != nil {
		d.markDisabled()
		return err
	}
	d.markEnabled()
	return nil
}

// GetState queries the current relay state.
func (d *TasmotaDevice) GetState() (bool, error) {
	resp, err := d.sendCommand("Power")
	if err != nil {
		d.markDisabled()
		return false, err
	}
	d.markEnabled()
	return resp.Power == "ON", nil
}

// IsDisabled returns true if the last request to the device failed
func (d *TasmotaDevice) IsDisabled() bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.disabled
}

func (d *TasmotaDevice) markDisabled() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.disabled {
		d.disabled = true
		log.Printf("%s marked as disabled due to network connectivity issues", d)
	}
}

func (d *TasmotaDevice) markEnabled() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.disabled {
		d.disabled = false
		log.Printf("%s re-enabled after network connectivity restored", d)
	}
}

func (d *TasmotaDevice) String() string {
	return fmt.Sprintf("TasmotaDevice(%s)", d.address)
}

// Close stops the dispatcher
func (d *TasmotaDevice) Close() error {
	return d.dispatcher.Close()
}

func (d *TasmotaDevice) sendCommand(command string) (*TasmotaResponse, error) {
	reqURL := fmt.Sprintf("%s/cm?cmnd=%s", d.address, url.QueryEscape(command))

	resp, err := d.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var tasmotaResp TasmotaResponse
	if err := json.Unmarshal(body, &tasmotaResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return &tasmotaResp, nil
}

// TasmotaDriver attaches a statically addressed Tasmota device.
type TasmotaDriver struct {
	device *TasmotaDevice
}

// Attach checks connectivity and fills the slot. An unreachable device is
// still attached, marked disabled, so the first successful push enables it.
func (d *TasmotaDriver) Attach(ctx context.Context, slot *Slot) error {
	log.Printf("initializing %s", d.device)
	if _, err := d.device.sendCommand("Power"); err != nil {
		d.device.markDisabled()
	} else {
		log.Printf("%s is reachable and ready", d.device)
	}
	slot.Set(d.device)
	return nil
}

func (d *TasmotaDriver) Close() error {
	return d.device.Close()
}

func (d *TasmotaDriver) String() string {
	return fmt.Sprintf("TasmotaDriver(%s)", d.device.address)
}

func init() {
	MustRegister("tasmota", &TasmotaFactory{})
}
