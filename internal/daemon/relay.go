package daemon

import (
	"context"
	"fmt"
	"log"

	"github.com/larsks/doorbell/internal/indicator"
	"github.com/larsks/doorbell/internal/relay"
	"github.com/larsks/doorbell/internal/remote"
)

// Relay is a fully wired doorbell: one controller, its indicator surfaces
// and the remote driver that fills the device slot.
type Relay struct {
	Controller *relay.Controller
	Slot       *remote.Slot
	Driver     remote.Driver
	Surfaces   *indicator.Multi
	HTTP       *indicator.HTTPServer
}

// NewRelay builds the collaborators described by cfg. Nothing is started.
func NewRelay(cfg *Config, opts ...relay.Option) (*Relay, error) {
	relayCfg, err := cfg.RelayConfig()
	if err != nil {
		return nil, err
	}

	driver, err := remote.Create(cfg.Remote.Driver, cfg.Remote.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote driver: %w", err)
	}

	r := &Relay{
		Slot:   remote.NewSlot(),
		Driver: driver,
	}

	var surfaces []indicator.Surface
	if cfg.HTTP.Enabled {
		r.HTTP = indicator.NewHTTPServer(cfg.HTTP.HTTPConfig)
		surfaces = append(surfaces, r.HTTP)
	}
	if cfg.HomeKit.Enabled {
		hk, err := indicator.NewHomeKit(cfg.HomeKit.HomeKitConfig)
		if err != nil {
			driver.Close() //nolint:errcheck
			return nil, fmt.Errorf("failed to create HomeKit accessory: %w", err)
		}
		surfaces = append(surfaces, hk)
	}
	if cfg.MQTT.Enabled {
		surfaces = append(surfaces, indicator.NewMQTTSwitch(cfg.MQTT.MQTTConfig))
	}
	r.Surfaces = indicator.NewMulti(surfaces...)

	controller, err := relay.NewController(relayCfg, r.Surfaces, r.Slot, opts...)
	if err != nil {
		r.Surfaces.Close() //nolint:errcheck
		driver.Close()     //nolint:errcheck
		return nil, err
	}
	r.Controller = controller

	if r.HTTP != nil {
		r.HTTP.SetStatusProvider(controller)
	}

	return r, nil
}

// Start shows the initial off state, then brings up the surfaces and
// attaches the remote driver. Commands that arrive while the driver is
// attaching are handled normally; pushes are skipped until the slot is
// filled.
func (r *Relay) Start(ctx context.Context) error {
	r.Controller.Start()

	if err := r.Surfaces.Start(ctx); err != nil {
		return fmt.Errorf("failed to start indicators: %w", err)
	}

	if err := r.Driver.Attach(ctx, r.Slot); err != nil {
		return fmt.Errorf("failed to attach %s: %w", r.Driver, err)
	}

	log.Printf("doorbell relay ready: %s via %s", r.Controller, r.Driver)
	return nil
}

// Close disposes the controller, then closes the surfaces and the driver.
func (r *Relay) Close() error {
	r.Controller.Dispose()

	ec := NewErrorCollector()
	ec.Add("indicators", r.Surfaces.Close())
	ec.Add(r.Driver.String(), r.Driver.Close())
	return ec.Result()
}
