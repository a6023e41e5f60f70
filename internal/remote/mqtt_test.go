package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/doorbell/internal/mqtt"
)

func TestMQTTFactory_ParseConfig(t *testing.T) {
	f := &MQTTFactory{}

	cfg, err := f.parseConfig(map[string]any{"server-url": "mqtt://broker:1883"})
	require.NoError(t, err)
	assert.Equal(t, "doorbell/sensor", cfg.Topic)
	assert.Equal(t, "occupancy", cfg.DeviceClass)
	assert.Equal(t, "true", cfg.PayloadOn)
	assert.Equal(t, "false", cfg.PayloadOff)
	assert.True(t, cfg.Retain)
	assert.Equal(t, byte(0), cfg.QoS)

	cfg, err = f.parseConfig(map[string]any{
		"server-url":   "mqtt://broker:1883",
		"topic":        "porch/bell/",
		"qos":          1,
		"retain":       false,
		"device-class": "door",
	})
	require.NoError(t, err)
	assert.Equal(t, "porch/bell", cfg.Topic, "trailing slash is trimmed")
	assert.Equal(t, byte(1), cfg.QoS)
	assert.False(t, cfg.Retain)

	tests := []struct {
		name    string
		config  map[string]any
		wantErr error
	}{
		{name: "missing server", config: map[string]any{}, wantErr: ErrMissingConfigKey},
		{name: "qos too high", config: map[string]any{"server-url": "mqtt://b", "qos": 3}, wantErr: ErrInvalidConfig},
		{name: "unknown key", config: map[string]any{"server-url": "mqtt://b", "topik": "x"}, wantErr: ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.parseConfig(tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMQTTConfig_Discovery(t *testing.T) {
	cfg := &MQTTConfig{
		Topic:       "porch/bell",
		Name:        "Front door",
		DeviceClass: "door",
		PayloadOn:   "ON",
		PayloadOff:  "OFF",
	}

	assert.Equal(t, "porch/bell/state", cfg.stateTopic())
	assert.Equal(t, "porch/bell/availability", cfg.availabilityTopic())
	assert.Equal(t, "porch_bell", cfg.objectID())

	d := cfg.discovery()
	assert.Equal(t, discoveryConfig{
		Name:              "Front door",
		UniqueID:          "porch_bell",
		StateTopic:        "porch/bell/state",
		AvailabilityTopic: "porch/bell/availability",
		DeviceClass:       "door",
		PayloadOn:         "ON",
		PayloadOff:        "OFF",
	}, d)
}

func TestMQTTDevice_SendWithoutClient(t *testing.T) {
	device := newMQTTDevice(&MQTTConfig{Topic: "doorbell/sensor"})
	defer device.dispatcher.Close() //nolint:errcheck

	assert.ErrorIs(t, device.send("true"), ErrNotConnected)

	device.client.Store(&mqtt.Client{})
	assert.ErrorIs(t, device.send("true"), mqtt.ErrNotConnected)

	assert.NoError(t, device.SetState("true"), "SetState only queues the value")
}

func TestMQTTDriver_ConnectedAndLost(t *testing.T) {
	driver, err := Create("mqtt", map[string]any{"server-url": "mqtt://broker:1883"})
	require.NoError(t, err)
	d := driver.(*MQTTDriver)
	d.device = newMQTTDevice(&d.config)
	defer d.Close() //nolint:errcheck

	slot := NewSlot()
	_, ok := slot.Handle()
	require.False(t, ok)

	client := &mqtt.Client{}
	d.connected(slot, client)

	handle, ok := slot.Handle()
	require.True(t, ok)
	assert.Same(t, d.device, handle)
	assert.Same(t, client, d.device.client.Load())

	d.disconnected(slot)
	_, ok = slot.Handle()
	assert.False(t, ok)
	assert.Nil(t, d.device.client.Load())
	assert.ErrorIs(t, d.device.send("false"), ErrNotConnected)

	d.connected(slot, client)
	_, ok = slot.Handle()
	assert.True(t, ok, "a reconnect fills the slot again")
}
