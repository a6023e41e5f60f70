package indicator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/google/uuid"
)

var pinPattern = regexp.MustCompile(`^[0-9]{8}$`)

// HomeKitConfig configures the HomeKit switch accessory
type HomeKitConfig struct {
	Name          string `mapstructure:"name"`
	Pin           string `mapstructure:"pin"`
	ListenAddress string `mapstructure:"listen-address"`
	StoragePath   string `mapstructure:"storage-path"`
	Manufacturer  string `mapstructure:"manufacturer"`
	Model         string `mapstructure:"model"`
	SerialNumber  string `mapstructure:"serial-number"`
	Firmware      string `mapstructure:"firmware"`
}

// Validate checks the HomeKit configuration
func (c HomeKitConfig) Validate() error {
	if !pinPattern.MatchString(c.Pin) {
		return fmt.Errorf("%w: %q", ErrInvalidPin, c.Pin)
	}
	if c.StoragePath == "" {
		return ErrStoragePathRequired
	}
	return nil
}

// HomeKit exposes a switch accessory. The hub turning the switch on raises
// a command; SetDisplayedState updates the characteristic the hub sees.
type HomeKit struct {
	commandHub

	config HomeKitConfig
	acc    *accessory.Switch
	server *hap.Server

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewHomeKit creates the accessory and its HAP server. Pairing data is kept
// under cfg.StoragePath.
func NewHomeKit(cfg HomeKitConfig) (*HomeKit, error) {
	if cfg.Name == "" {
		cfg.Name = "Doorbell"
	}
	if cfg.Manufacturer == "" {
		cfg.Manufacturer = "doorbell"
	}
	if cfg.Model == "" {
		cfg.Model = "Momentary Switch"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.StoragePath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create HomeKit storage: %w", err)
	}
	store := hap.NewFsStore(cfg.StoragePath)

	if cfg.SerialNumber == "" {
		serial, err := storedSerial(store)
		if err != nil {
			return nil, err
		}
		cfg.SerialNumber = serial
	}

	h := &HomeKit{config: cfg}
	h.acc = accessory.NewSwitch(accessory.Info{
		Name:         cfg.Name,
		Manufacturer: cfg.Manufacturer,
		Model:        cfg.Model,
		SerialNumber: cfg.SerialNumber,
		Firmware:     cfg.Firmware,
	})
	h.acc.Switch.On.OnValueRemoteUpdate(h.emit)
	h.acc.IdentifyFunc = func(r *http.Request) {
		log.Printf("%s: identify", h)
	}

	server, err := hap.NewServer(store, h.acc.A)
	if err != nil {
		return nil, fmt.Errorf("failed to create HomeKit server: %w", err)
	}
	server.Pin = cfg.Pin
	server.Addr = cfg.ListenAddress
	h.server = server

	return h, nil
}

// serialStore is the part of the HAP pairing store used for the serial
type serialStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

const serialKey = "doorbell-serial"

// storedSerial returns the accessory serial number kept in store, creating
// one on first use. Hubs identify a paired accessory by its serial, so it
// must not change between restarts.
func storedSerial(store serialStore) (string, error) {
	if data, err := store.Get(serialKey); err == nil {
		if serial := strings.TrimSpace(string(data)); serial != "" {
			return serial, nil
		}
	}

	serial := uuid.NewString()
	if err := store.Set(serialKey, []byte(serial)); err != nil {
		return "", fmt.Errorf("failed to store HomeKit serial number: %w", err)
	}
	return serial, nil
}

func (h *HomeKit) SetDisplayedState(on bool) {
	h.setDisplayed(on)
	h.acc.Switch.On.SetValue(on)
}

// Start serves the accessory until ctx is cancelled or Close is called
func (h *HomeKit) Start(ctx context.Context) error {
	ctx, h.cancel = context.WithCancel(ctx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		log.Printf("%s: serving HomeKit accessory (pin %s)", h, h.config.Pin)
		if err := h.server.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("%s: %v", h, err)
		}
	}()
	return nil
}

func (h *HomeKit) Close() error {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
	return nil
}

func (h *HomeKit) String() string {
	return fmt.Sprintf("HomeKit(%s)", h.config.Name)
}
