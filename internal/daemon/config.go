package daemon

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"

	"github.com/larsks/doorbell/internal/config"
	"github.com/larsks/doorbell/internal/indicator"
	"github.com/larsks/doorbell/internal/relay"
	"github.com/larsks/doorbell/internal/remote"
)

const defaultPreset = "binary-sensor"

// RemoteConfig selects and configures the remote device driver
type RemoteConfig struct {
	Driver  string         `mapstructure:"driver"`
	Options map[string]any `mapstructure:"options"`
}

type HTTPSection struct {
	Enabled              bool `mapstructure:"enabled"`
	indicator.HTTPConfig `mapstructure:",squash"`
}

type HomeKitSection struct {
	Enabled                 bool `mapstructure:"enabled"`
	indicator.HomeKitConfig `mapstructure:",squash"`
}

type MQTTSection struct {
	Enabled              bool `mapstructure:"enabled"`
	indicator.MQTTConfig `mapstructure:",squash"`
}

// Config holds the doorbell-relay configuration. DwellDuration, ActiveValue
// and InactiveValue override the selected preset when set.
type Config struct {
	ConfigFile     string         `mapstructure:"config-file"`
	Preset         string         `mapstructure:"preset"`
	DwellDuration  time.Duration  `mapstructure:"dwell-duration"`
	ActiveValue    string         `mapstructure:"active-value"`
	InactiveValue  string         `mapstructure:"inactive-value"`
	DisableLogging bool           `mapstructure:"disable-logging"`
	Remote         RemoteConfig   `mapstructure:"remote"`
	HTTP           HTTPSection    `mapstructure:"http"`
	HomeKit        HomeKitSection `mapstructure:"homekit"`
	MQTT           MQTTSection    `mapstructure:"mqtt"`
}

// DefaultConfigFile returns $XDG_CONFIG_HOME/doorbell/doorbell.toml
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "doorbell", "doorbell.toml")
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ConfigFile: DefaultConfigFile(),
		Preset:     defaultPreset,
		Remote: RemoteConfig{
			Driver:  "dummy",
			Options: map[string]any{},
		},
		HTTP: HTTPSection{
			Enabled:    true,
			HTTPConfig: indicator.HTTPConfig{ListenPort: 8080},
		},
		HomeKit: HomeKitSection{
			HomeKitConfig: indicator.HomeKitConfig{
				Name:        "Doorbell",
				Pin:         "00102003",
				StoragePath: filepath.Join(xdg.DataHome, "doorbell"),
			},
		},
		MQTT: MQTTSection{
			MQTTConfig: indicator.MQTTConfig{
				Topic: "doorbell/switch",
				Name:  "Doorbell",
			},
		},
	}
}

// AddFlags adds command-line flags for the configuration options
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Config file to use")
	fs.StringVar(&c.Preset, "preset", c.Preset, fmt.Sprintf("Device binding preset %v", relay.PresetNames()))
	fs.DurationVar(&c.DwellDuration, "dwell-duration", c.DwellDuration, "Time before the switch resets (overrides preset)")
	fs.StringVar(&c.ActiveValue, "active-value", c.ActiveValue, "Value sent to the remote device on activation (overrides preset)")
	fs.StringVar(&c.InactiveValue, "inactive-value", c.InactiveValue, "Value sent to the remote device on reset (overrides preset)")
	fs.BoolVar(&c.DisableLogging, "disable-logging", c.DisableLogging, "Do not log each command")

	fs.StringVar(&c.Remote.Driver, "remote.driver", c.Remote.Driver, fmt.Sprintf("Remote device driver %v", remote.ListDrivers()))

	fs.BoolVar(&c.HTTP.Enabled, "http.enabled", c.HTTP.Enabled, "Enable the REST surface")
	fs.StringVar(&c.HTTP.ListenAddress, "http.listen-address", c.HTTP.ListenAddress, "Listen address for the REST surface")
	fs.IntVar(&c.HTTP.ListenPort, "http.listen-port", c.HTTP.ListenPort, "Listen port for the REST surface")

	fs.BoolVar(&c.HomeKit.Enabled, "homekit.enabled", c.HomeKit.Enabled, "Enable the HomeKit accessory")
	fs.StringVar(&c.HomeKit.Pin, "homekit.pin", c.HomeKit.Pin, "HomeKit pairing PIN")

	fs.BoolVar(&c.MQTT.Enabled, "mqtt.enabled", c.MQTT.Enabled, "Enable the MQTT switch")
	fs.StringVar(&c.MQTT.ServerURL, "mqtt.server-url", c.MQTT.ServerURL, "MQTT broker URL (mqtt://host:port)")
	fs.StringVar(&c.MQTT.Topic, "mqtt.topic", c.MQTT.Topic, "MQTT switch base topic")
}

// LoadConfig loads configuration using the global flag set
func (c *Config) LoadConfig() error {
	return c.LoadConfigWithFlagSet(pflag.CommandLine)
}

// LoadConfigWithFlagSet loads configuration with precedence
// defaults < config file < flags
func (c *Config) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	configFile, err := config.ResolveConfigFile(c.ConfigFile, DefaultConfigFile())
	if err != nil {
		return err
	}

	loader := config.NewConfigLoader()
	loader.SetConfigFile(configFile)
	loader.SetStrictMode(true)
	return loader.LoadConfigWithFlagSet(c, fs)
}

// RelayConfig returns the preset selected by Preset with any explicit
// settings applied on top.
func (c *Config) RelayConfig() (relay.Config, error) {
	preset := c.Preset
	if preset == "" {
		preset = defaultPreset
	}

	cfg, err := relay.Preset(preset)
	if err != nil {
		return relay.Config{}, err
	}

	if c.DwellDuration != 0 {
		cfg.DwellDuration = c.DwellDuration
	}
	if c.ActiveValue != "" {
		cfg.ActiveValue = remote.Value(c.ActiveValue)
	}
	if c.InactiveValue != "" {
		cfg.InactiveValue = remote.Value(c.InactiveValue)
	}
	cfg.DisableLogging = c.DisableLogging

	return cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	relayCfg, err := c.RelayConfig()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := relayCfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := remote.ValidateConfig(c.Remote.Driver, c.Remote.Options); err != nil {
		return fmt.Errorf("%w: remote driver %s: %v", ErrInvalidConfig, c.Remote.Driver, err)
	}

	if !c.HTTP.Enabled && !c.HomeKit.Enabled && !c.MQTT.Enabled {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, indicator.ErrNoSurfaces)
	}
	if c.HTTP.Enabled && (c.HTTP.ListenPort < 0 || c.HTTP.ListenPort > 65535) {
		return fmt.Errorf("%w: invalid http listen-port %d", ErrInvalidConfig, c.HTTP.ListenPort)
	}
	if c.HomeKit.Enabled {
		if err := c.HomeKit.Validate(); err != nil {
			return fmt.Errorf("%w: homekit: %v", ErrInvalidConfig, err)
		}
	}
	if c.MQTT.Enabled && c.MQTT.ServerURL == "" {
		return fmt.Errorf("%w: mqtt server-url is required", ErrInvalidConfig)
	}

	return nil
}
