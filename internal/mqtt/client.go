// Package mqtt bridges a player to an MQTT broker: bus notifications are
// published under a topic prefix and remote triggers are received on
// <prefix>/trigger.
package mqtt

import (
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 10 * time.Second
	publishTimeout   = 5 * time.Second
)

// Conn is the part of Client the bridge uses.
type Conn interface {
	Subscribe(topic string, handler paho.MessageHandler) error
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// Client wraps the Paho MQTT client for the scene player.
type Client struct {
	client    paho.Client
	brokerURL string
	mu        sync.Mutex
}

// NewClient creates a new MQTT client but does not connect.
func NewClient(brokerURL, clientID string) *Client {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	return &Client{
		client:    paho.NewClient(opts),
		brokerURL: brokerURL,
	}
}

// BrokerURL returns the broker the client was created for.
func (c *Client) BrokerURL() string {
	return c.brokerURL
}

// Connect attempts to connect to the broker.
// Returns an error if connection fails, but does not block indefinitely.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return &ConnectTimeoutError{}
	}
	return token.Error()
}

// Subscribe subscribes to a topic with the given handler.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(subscribeTimeout) {
		return &SubscribeTimeoutError{Topic: topic}
	}
	return token.Error()
}

// Publish sends payload to topic at QoS 0, not retained.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return &PublishTimeoutError{Topic: topic}
	}
	return token.Error()
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.client.Disconnect(1000)
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// ConnectTimeoutError indicates connection timed out.
type ConnectTimeoutError struct{}

func (e *ConnectTimeoutError) Error() string {
	return "mqtt connect timeout"
}

// SubscribeTimeoutError indicates subscription timed out.
type SubscribeTimeoutError struct {
	Topic string
}

func (e *SubscribeTimeoutError) Error() string {
	return "mqtt subscribe timeout: " + e.Topic
}

// PublishTimeoutError indicates a publish was not acknowledged in time.
type PublishTimeoutError struct {
	Topic string
}

func (e *PublishTimeoutError) Error() string {
	return "mqtt publish timeout: " + e.Topic
}

// Subscription registers its own handler once the client is connected.
type Subscription interface {
	Topic() string
	Subscribe() error
}

// StartWithRetry connects and subscribes, logging errors but not crashing.
// Returns true if connected and subscribed.
func (c *Client) StartWithRetry(sub Subscription) bool {
	if err := c.Connect(); err != nil {
		log.Printf("mqtt: failed to connect to %s: %v", c.brokerURL, err)
		return false
	}

	if err := sub.Subscribe(); err != nil {
		log.Printf("mqtt: failed to subscribe to %s: %v", sub.Topic(), err)
		return false
	}

	log.Printf("mqtt: connected and subscribed to %s", sub.Topic())
	return true
}
