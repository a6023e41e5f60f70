package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

var (
	ErrInvalidURL   = errors.New("invalid MQTT server URL")
	ErrNotConnected = errors.New("MQTT client is not connected")
)

// Client wraps a paho client that connects in the background
type Client struct {
	client mqtt.Client
	stop   chan struct{}
	once   sync.Once
}

// Config holds MQTT client configuration
type Config struct {
	ServerURL         string
	ClientID          string
	Username          string
	Password          string
	MaxRetries        int           // Maximum number of connection retries (0 = infinite)
	InitialRetryDelay time.Duration // Initial delay between retries
	MaxRetryDelay     time.Duration // Maximum delay between retries
	OnConnect         func(*Client) // Called on every (re)connect
	OnConnectionLost  func(error)

	// Will, if set, is published by the broker when the connection drops.
	WillTopic   string
	WillPayload string
}

// DiscoveryTopic returns the Home Assistant discovery config topic for an
// entity.
func DiscoveryTopic(prefix, component, objectID string) string {
	if prefix == "" {
		prefix = "homeassistant"
	}
	return fmt.Sprintf("%s/%s/%s/config", prefix, component, objectID)
}

// NewClient creates a new MQTT client with the given configuration
// The client will attempt to connect asynchronously and retry if the initial connection fails
func NewClient(config Config) (*Client, error) {
	parsedURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if parsedURL.Scheme != "mqtt" && parsedURL.Scheme != "tcp" {
		return nil, fmt.Errorf("%w: must use mqtt:// scheme", ErrInvalidURL)
	}

	brokerURL := *parsedURL
	brokerURL.Scheme = "tcp"

	if config.ClientID == "" {
		config.ClientID = "doorbell-" + uuid.NewString()[:8]
	}

	// Set default retry values if not specified
	initialDelay := config.InitialRetryDelay
	if initialDelay == 0 {
		initialDelay = time.Second
	}
	maxDelay := config.MaxRetryDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	c := &Client{stop: make(chan struct{})}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL.String())
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(maxDelay)
	if config.WillTopic != "" {
		opts.SetWill(config.WillTopic, config.WillPayload, 1, true)
	}
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
		if config.OnConnectionLost != nil {
			config.OnConnectionLost(err)
		}
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("Connected to MQTT broker at %s", config.ServerURL)
		if config.OnConnect != nil {
			config.OnConnect(c)
		}
	})

	c.client = mqtt.NewClient(opts)

	// Start async connection with retry logic
	go func() {
		delay := initialDelay
		attempt := 0
		for {
			token := c.client.Connect()
			token.Wait()
			if token.Error() == nil {
				return
			}

			attempt++
			if config.MaxRetries > 0 && attempt >= config.MaxRetries {
				log.Printf("Failed to connect to MQTT broker after %d attempts, giving up: %v", attempt, token.Error())
				return
			}

			log.Printf("Failed to connect to MQTT broker (attempt %d): %v. Retrying in %v...", attempt, token.Error(), delay)
			select {
			case <-c.stop:
				return
			case <-time.After(delay):
			}

			// Exponential backoff
			delay = delay * 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}()

	return c, nil
}

// Publish publishes a message and waits for the broker to accept it
func (c *Client) Publish(topic string, qos byte, retained bool, payload any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if token := c.client.Publish(topic, qos, retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish MQTT message: %w", token.Error())
	}

	return nil
}

// PublishJSON marshals v and publishes it
func (c *Client) PublishJSON(topic string, qos byte, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}
	return c.Publish(topic, qos, retained, payload)
}

// Subscribe subscribes to a topic with the given message handler
func (c *Client) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	wrappedHandler := func(client mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}

	if token := c.client.Subscribe(topic, qos, wrappedHandler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to MQTT topic %s: %w", topic, token.Error())
	}

	return nil
}

// IsConnected returns true if the client is connected to the MQTT broker
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Disconnect stops any pending connection attempts and disconnects from the
// broker
func (c *Client) Disconnect(quiesce uint) {
	c.once.Do(func() { close(c.stop) })
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(quiesce)
		log.Printf("Disconnected from MQTT broker")
	}
}
