package indicator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/larsks/doorbell/internal/mqtt"
	"github.com/larsks/doorbell/internal/remote"
)

const (
	payloadOn  = "ON"
	payloadOff = "OFF"
)

// MQTTConfig configures the MQTT switch surface
type MQTTConfig struct {
	ServerURL       string        `mapstructure:"server-url"`
	ClientID        string        `mapstructure:"client-id"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Topic           string        `mapstructure:"topic"`
	DiscoveryPrefix string        `mapstructure:"discovery-prefix"`
	Name            string        `mapstructure:"name"`
	MaxRetryDelay   time.Duration `mapstructure:"max-retry-delay"`
}

type switchDiscovery struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	CommandTopic      string `json:"command_topic"`
	StateTopic        string `json:"state_topic"`
	AvailabilityTopic string `json:"availability_topic"`
	PayloadOn         string `json:"payload_on"`
	PayloadOff        string `json:"payload_off"`
	Icon              string `json:"icon,omitempty"`
}

// MQTTSwitch is a Home Assistant style switch. Commands arrive on
// <topic>/set and the displayed state is published, retained, to
// <topic>/state.
type MQTTSwitch struct {
	commandHub

	config MQTTConfig

	mu     sync.Mutex
	client *mqtt.Client
	state  *remote.Dispatcher
}

// NewMQTTSwitch creates an MQTT switch surface
func NewMQTTSwitch(cfg MQTTConfig) *MQTTSwitch {
	if cfg.Topic == "" {
		cfg.Topic = "doorbell/switch"
	}
	if cfg.Name == "" {
		cfg.Name = "Doorbell"
	}
	cfg.Topic = strings.TrimSuffix(cfg.Topic, "/")

	s := &MQTTSwitch{config: cfg}
	s.state = remote.NewDispatcher(s.String(), s.publishState)
	return s
}

func (s *MQTTSwitch) commandTopic() string {
	return s.config.Topic + "/set"
}

func (s *MQTTSwitch) stateTopic() string {
	return s.config.Topic + "/state"
}

func (s *MQTTSwitch) availabilityTopic() string {
	return s.config.Topic + "/availability"
}

func (s *MQTTSwitch) discovery() switchDiscovery {
	return switchDiscovery{
		Name:              s.config.Name,
		UniqueID:          strings.ReplaceAll(s.config.Topic, "/", "_"),
		CommandTopic:      s.commandTopic(),
		StateTopic:        s.stateTopic(),
		AvailabilityTopic: s.availabilityTopic(),
		PayloadOn:         payloadOn,
		PayloadOff:        payloadOff,
		Icon:              "mdi:doorbell",
	}
}

func statePayload(on bool) remote.Value {
	if on {
		return payloadOn
	}
	return payloadOff
}

// SetDisplayedState queues a retained state update. It does not wait for
// the broker.
func (s *MQTTSwitch) SetDisplayedState(on bool) {
	s.setDisplayed(on)
	s.state.SetState(statePayload(on)) //nolint:errcheck
}

func (s *MQTTSwitch) publishState(v remote.Value) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return mqtt.ErrNotConnected
	}
	return client.Publish(s.stateTopic(), 1, true, string(v))
}

// handleCommand parses a payload from the command topic
func (s *MQTTSwitch) handleCommand(topic string, payload []byte) {
	on, err := remote.ParseBool(remote.Value(payload))
	if err != nil {
		log.Printf("%s: ignoring command on %s: %v", s, topic, err)
		return
	}

	s.emit(on)
	s.state.SetState(statePayload(on)) //nolint:errcheck
}

func (s *MQTTSwitch) onConnect(c *mqtt.Client) {
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()

	topic := mqtt.DiscoveryTopic(s.config.DiscoveryPrefix, "switch", s.discovery().UniqueID)
	if err := c.PublishJSON(topic, 1, true, s.discovery()); err != nil {
		log.Printf("%s: failed to publish discovery config: %v", s, err)
	}
	if err := c.Publish(s.availabilityTopic(), 1, true, "online"); err != nil {
		log.Printf("%s: failed to publish availability: %v", s, err)
	}
	if err := c.Subscribe(s.commandTopic(), 1, s.handleCommand); err != nil {
		log.Printf("%s: %v", s, err)
	}

	s.state.SetState(statePayload(s.Displayed())) //nolint:errcheck
}

// Start connects to the broker in the background
func (s *MQTTSwitch) Start(ctx context.Context) error {
	client, err := mqtt.NewClient(mqtt.Config{
		ServerURL:     s.config.ServerURL,
		ClientID:      s.config.ClientID,
		Username:      s.config.Username,
		Password:      s.config.Password,
		MaxRetryDelay: s.config.MaxRetryDelay,
		WillTopic:     s.availabilityTopic(),
		WillPayload:   "offline",
		OnConnect:     s.onConnect,
	})
	if err != nil {
		return fmt.Errorf("failed to create MQTT client: %w", err)
	}

	s.mu.Lock()
	if s.client == nil {
		s.client = client
	}
	s.mu.Unlock()
	return nil
}

func (s *MQTTSwitch) Close() error {
	s.state.Close() //nolint:errcheck

	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client != nil {
		if client.IsConnected() {
			client.Publish(s.availabilityTopic(), 1, true, "offline") //nolint:errcheck
		}
		client.Disconnect(250)
	}
	return nil
}

func (s *MQTTSwitch) String() string {
	return fmt.Sprintf("MQTTSwitch(%s)", s.config.Topic)
}
