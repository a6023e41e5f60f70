package remote

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// MDNSConfig represents configuration for a Tasmota device located by its
// mDNS instance name
type MDNSConfig struct {
	Instance  string        `mapstructure:"instance"`
	Service   string        `mapstructure:"service"`
	Domain    string        `mapstructure:"domain"`
	Interface string        `mapstructure:"interface"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MDNSFactory implements Factory for mDNS-discovered Tasmota devices
type MDNSFactory struct{}

// CreateDriver creates a new mDNS driver
func (f *MDNSFactory) CreateDriver(config map[string]any) (Driver, error) {
	cfg, err := f.parseConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mdns config: %w", err)
	}
	return &MDNSDriver{config: *cfg}, nil
}

// ValidateConfig validates mDNS configuration
func (f *MDNSFactory) ValidateConfig(config map[string]any) error {
	_, err := f.parseConfig(config)
	return err
}

func (f *MDNSFactory) parseConfig(config map[string]any) (*MDNSConfig, error) {
	cfg := &MDNSConfig{
		Service: "_http._tcp",
		Domain:  "local.",
		Timeout: 5 * time.Second,
	}
	if err := decodeConfig(config, cfg); err != nil {
		return nil, err
	}
	if cfg.Instance == "" {
		return nil, fmt.Errorf("%w: instance", ErrMissingConfigKey)
	}
	return cfg, nil
}

// entryAddress returns the HTTP address of a browse result, preferring IPv4.
func entryAddress(entry *zeroconf.ServiceEntry) (string, bool) {
	var ip net.IP
	switch {
	case len(entry.AddrIPv4) > 0:
		ip = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		ip = entry.AddrIPv6[0]
	default:
		return "", false
	}
	return "http://" + net.JoinHostPort(ip.String(), fmt.Sprint(entry.Port)), true
}

// MDNSDriver browses for the configured instance and fills the slot with a
// TasmotaDevice once it is found. The slot is cleared if the instance goes
// away and refilled when it comes back, possibly at a new address.
type MDNSDriver struct {
	config MDNSConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	device *TasmotaDevice
}

func (d *MDNSDriver) browseOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if d.config.Interface != "" {
		iface, err := net.InterfaceByName(d.config.Interface)
		if err != nil {
			log.Printf("%s: ignoring interface %s: %v", d, d.config.Interface, err)
		} else {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// Attach starts browsing and returns immediately.
func (d *MDNSDriver) Attach(ctx context.Context, slot *Slot) error {
	ctx, d.cancel = context.WithCancel(ctx)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.watch(ctx, slot, entries, removed)
	}()
	go func() {
		defer d.wg.Done()
		if err := zeroconf.Browse(ctx, d.config.Service, d.config.Domain, entries, removed, d.browseOptions()...); err != nil {
			log.Printf("%s: browse failed: %v", d, err)
		}
	}()

	log.Printf("%s: browsing for %s", d, d.config.Service)
	return nil
}

func (d *MDNSDriver) matches(entry *zeroconf.ServiceEntry) bool {
	return entry != nil && strings.EqualFold(entry.Instance, d.config.Instance)
}

func (d *MDNSDriver) watch(ctx context.Context, slot *Slot, entries, removed <-chan *zeroconf.ServiceEntry) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if d.matches(entry) {
				d.found(slot, entry)
			}
		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			if d.matches(entry) {
				d.lost(slot)
			}
		}
	}
}

func (d *MDNSDriver) found(slot *Slot, entry *zeroconf.ServiceEntry) {
	address, ok := entryAddress(entry)
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil && d.device.address == address {
		return
	}
	if d.device != nil {
		d.device.Close() //nolint:errcheck
	}

	log.Printf("%s: found %s at %s", d, entry.Instance, address)
	d.device = NewTasmotaDevice(address, d.config.Timeout)
	slot.Set(d.device)
}

func (d *MDNSDriver) lost(slot *Slot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return
	}
	slot.Clear()
	d.device.Close() //nolint:errcheck
	d.device = nil
}

func (d *MDNSDriver) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device != nil {
		return d.device.Close()
	}
	return nil
}

func (d *MDNSDriver) String() string {
	return fmt.Sprintf("MDNSDriver(%s)", d.config.Instance)
}

func init() {
	MustRegister("mdns", &MDNSFactory{})
}
