package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"unparseable", "mqtt://[::1"},
		{"wrong scheme", "http://localhost:1883"},
		{"no scheme", "localhost:1883"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(Config{ServerURL: tt.url})
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestClient_NotConnected(t *testing.T) {
	// Nothing listens on port 1, so the background connect keeps failing.
	c, err := NewClient(Config{ServerURL: "mqtt://127.0.0.1:1", MaxRetries: 1})
	require.NoError(t, err)
	defer c.Disconnect(0)

	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Publish("a/b", 0, false, "x"), ErrNotConnected)
	assert.ErrorIs(t, c.Subscribe("a/b", 0, func(string, []byte) {}), ErrNotConnected)
}

func TestDiscoveryTopic(t *testing.T) {
	assert.Equal(t, "homeassistant/binary_sensor/doorbell/config", DiscoveryTopic("", "binary_sensor", "doorbell"))
	assert.Equal(t, "ha/switch/door/config", DiscoveryTopic("ha", "switch", "door"))
}
