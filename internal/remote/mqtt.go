package remote

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/larsks/doorbell/internal/mqtt"
)

// MQTTConfig represents MQTT binary sensor driver configuration
type MQTTConfig struct {
	ServerURL       string        `mapstructure:"server-url"`
	ClientID        string        `mapstructure:"client-id"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Topic           string        `mapstructure:"topic"`
	QoS             byte          `mapstructure:"qos"`
	Retain          bool          `mapstructure:"retain"`
	DiscoveryPrefix string        `mapstructure:"discovery-prefix"`
	Name            string        `mapstructure:"name"`
	DeviceClass     string        `mapstructure:"device-class"`
	PayloadOn       string        `mapstructure:"payload-on"`
	PayloadOff      string        `mapstructure:"payload-off"`
	MaxRetryDelay   time.Duration `mapstructure:"max-retry-delay"`
}

// MQTTFactory implements Factory for MQTT binary sensors
type MQTTFactory struct{}

// CreateDriver creates a new MQTT driver
func (f *MQTTFactory) CreateDriver(config map[string]any) (Driver, error) {
	cfg, err := f.parseConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MQTT config: %w", err)
	}
	return &MQTTDriver{config: *cfg}, nil
}

// ValidateConfig validates MQTT configuration
func (f *MQTTFactory) ValidateConfig(config map[string]any) error {
	_, err := f.parseConfig(config)
	return err
}

func (f *MQTTFactory) parseConfig(config map[string]any) (*MQTTConfig, error) {
	cfg := &MQTTConfig{
		Topic:       "doorbell/sensor",
		Name:        "Doorbell",
		DeviceClass: "occupancy",
		PayloadOn:   "true",
		PayloadOff:  "false",
		Retain:      true,
	}
	if err := decodeConfig(config, cfg); err != nil {
		return nil, err
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("%w: server-url", ErrMissingConfigKey)
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("%w: qos must be 0, 1 or 2", ErrInvalidConfig)
	}
	cfg.Topic = strings.TrimSuffix(cfg.Topic, "/")
	return cfg, nil
}

// discoveryConfig is the Home Assistant MQTT discovery payload for a binary
// sensor.
type discoveryConfig struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	StateTopic        string `json:"state_topic"`
	AvailabilityTopic string `json:"availability_topic"`
	DeviceClass       string `json:"device_class,omitempty"`
	PayloadOn         string `json:"payload_on"`
	PayloadOff        string `json:"payload_off"`
}

func (cfg *MQTTConfig) stateTopic() string {
	return cfg.Topic + "/state"
}

func (cfg *MQTTConfig) availabilityTopic() string {
	return cfg.Topic + "/availability"
}

func (cfg *MQTTConfig) objectID() string {
	return strings.ReplaceAll(cfg.Topic, "/", "_")
}

func (cfg *MQTTConfig) discovery() discoveryConfig {
	return discoveryConfig{
		Name:              cfg.Name,
		UniqueID:          cfg.objectID(),
		StateTopic:        cfg.stateTopic(),
		AvailabilityTopic: cfg.availabilityTopic(),
		DeviceClass:       cfg.DeviceClass,
		PayloadOn:         cfg.PayloadOn,
		PayloadOff:        cfg.PayloadOff,
	}
}

// MQTTDevice publishes values to the sensor state topic.
type MQTTDevice struct {
	config     *MQTTConfig
	client     atomic.Pointer[mqtt.Client]
	dispatcher *Dispatcher
}

func (d *MQTTDevice) SetState(v Value) error {
	return d.dispatcher.SetState(v)
}

func (d *MQTTDevice) send(v Value) error {
	client := d.client.Load()
	if client == nil {
		return ErrNotConnected
	}
	return client.Publish(d.config.stateTopic(), d.config.QoS, d.config.Retain, string(v))
}

func (d *MQTTDevice) String() string {
	return fmt.Sprintf("MQTTDevice(%s)", d.config.stateTopic())
}

// MQTTDriver fills the slot while the broker connection is up and clears it
// when the connection is lost.
type MQTTDriver struct {
	config MQTTConfig
	client *mqtt.Client
	device *MQTTDevice
}

func newMQTTDevice(cfg *MQTTConfig) *MQTTDevice {
	device := &MQTTDevice{config: cfg}
	device.dispatcher = NewDispatcher(device.String(), device.send)
	return device
}

func (d *MQTTDriver) Attach(ctx context.Context, slot *Slot) error {
	d.device = newMQTTDevice(&d.config)

	client, err := mqtt.NewClient(mqtt.Config{
		ServerURL:     d.config.ServerURL,
		ClientID:      d.config.ClientID,
		Username:      d.config.Username,
		Password:      d.config.Password,
		MaxRetryDelay: d.config.MaxRetryDelay,
		WillTopic:     d.config.availabilityTopic(),
		WillPayload:   "offline",
		OnConnect: func(c *mqtt.Client) {
			d.connected(slot, c)
		},
		OnConnectionLost: func(error) {
			d.disconnected(slot)
		},
	})
	if err != nil {
		d.device.dispatcher.Close() //nolint:errcheck
		return fmt.Errorf("failed to create MQTT client: %w", err)
	}

	d.client = client
	return nil
}

// connected announces the sensor and makes the device available.
func (d *MQTTDriver) connected(slot *Slot, c *mqtt.Client) {
	topic := mqtt.DiscoveryTopic(d.config.DiscoveryPrefix, "binary_sensor", d.config.objectID())
	if err := c.PublishJSON(topic, 1, true, d.config.discovery()); err != nil {
		log.Printf("%s: failed to publish discovery config: %v", d.device, err)
	}
	if err := c.Publish(d.config.availabilityTopic(), 1, true, "online"); err != nil {
		log.Printf("%s: failed to publish availability: %v", d.device, err)
	}
	d.device.client.Store(c)
	slot.Set(d.device)
}

func (d *MQTTDriver) disconnected(slot *Slot) {
	d.device.client.Store(nil)
	slot.Clear()
}

func (d *MQTTDriver) Close() error {
	if d.device != nil {
		d.device.dispatcher.Close() //nolint:errcheck
	}
	if d.client != nil {
		if d.client.IsConnected() {
			d.client.Publish(d.config.availabilityTopic(), 1, true, "offline") //nolint:errcheck
		}
		d.client.Disconnect(250)
	}
	return nil
}

func (d *MQTTDriver) String() string {
	return fmt.Sprintf("MQTTDriver(%s)", d.config.Topic)
}

func init() {
	MustRegister("mqtt", &MQTTFactory{})
}
