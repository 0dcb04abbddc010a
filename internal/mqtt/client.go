package mqtt

import (
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/assetiq/maintenance_backend/internal/models"
	"github.com/assetiq/maintenance_backend/internal/services"
)

// Client wraps the MQTT client with telemetry ingestion specifics
type Client struct {
	client       mqtt.Client
	parser       *services.TelemetryParser
	dataHandler  func(*models.Reading)
	errorHandler func(error)
	isConnected  bool
}

// Config holds MQTT connection configuration
type Config struct {
	BrokerURL    string
	ClientID     string
	Username     string
	Password     string
	KeepAlive    time.Duration
	PingTimeout  time.Duration
	ConnectRetry bool
}

// DefaultConfig returns default MQTT configuration
func DefaultConfig() *Config {
	return &Config{
		BrokerURL:    "tcp://localhost:1883",
		ClientID:     "assetiq_backend",
		Username:     "",
		Password:     "",
		KeepAlive:    30 * time.Second,
		PingTimeout:  10 * time.Second,
		ConnectRetry: true,
	}
}

// NewClient creates a new MQTT client for asset telemetry
func NewClient(config *Config) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.BrokerURL)
	opts.SetClientID(config.ClientID)
	opts.SetKeepAlive(config.KeepAlive)
	opts.SetPingTimeout(config.PingTimeout)
	opts.SetCleanSession(true)

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	client := &Client{
		parser:      services.NewTelemetryParser(),
		isConnected: false,
	}

	// Set connection handlers
	opts.SetDefaultPublishHandler(client.defaultMessageHandler)
	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)

	client.client = mqtt.NewClient(opts)

	return client
}

// Connect establishes connection to the MQTT broker
func (c *Client) Connect() error {
	log.Println("Connecting to MQTT broker...")

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Println("Successfully connected to MQTT broker")
	c.isConnected = true
	return nil
}

// Disconnect closes the MQTT connection
func (c *Client) Disconnect() {
	if c.isConnected {
		c.client.Disconnect(250)
		c.isConnected = false
		log.Println("Disconnected from MQTT broker")
	}
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	return c.isConnected && c.client.IsConnected()
}

// SubscribeToTelemetry subscribes to asset telemetry topics
func (c *Client) SubscribeToTelemetry() error {
	topics := map[string]byte{
		"assetiq/telemetry/+/data": 1, // + is wildcard for asset ID
		"assetiq/telemetry/data":   1, // General telemetry topic, asset ID in payload
	}

	for topic, qos := range topics {
		if token := c.client.Subscribe(topic, qos, c.telemetryHandler); token.Wait() && token.Error() != nil {
			return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
		}
		log.Printf("Subscribed to topic: %s", topic)
	}

	return nil
}

// SetDataHandler sets the callback function for parsed telemetry readings
func (c *Client) SetDataHandler(handler func(*models.Reading)) {
	c.dataHandler = handler
}

// SetErrorHandler sets the callback function for errors
func (c *Client) SetErrorHandler(handler func(error)) {
	c.errorHandler = handler
}

// telemetryHandler processes incoming telemetry messages
func (c *Client) telemetryHandler(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Received telemetry on topic %s: %s", msg.Topic(), string(msg.Payload()))

	assetID := assetIDFromTopic(msg.Topic())

	// Try parsing as JSON first (preferred format)
	reading, err := c.parser.ParseTelemetryJSON(msg.Payload(), assetID)
	if err != nil {
		// Fallback to comma-separated format
		reading, err = c.parser.ParseTelemetryString(string(msg.Payload()), assetID)
		if err != nil {
			log.Printf("Failed to parse telemetry data: %v", err)
			if c.errorHandler != nil {
				c.errorHandler(fmt.Errorf("telemetry parsing failed: %w", err))
			}
			return
		}
	}

	log.Printf("Parsed telemetry reading: %s", c.parser.FormatReading(reading))

	if c.dataHandler != nil {
		c.dataHandler(reading)
	}
}

// assetIDFromTopic extracts the asset ID from a per-asset topic like
// assetiq/telemetry/PUMP-001/data. The general topic has no asset segment.
func assetIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 4 && parts[1] == "telemetry" && parts[3] == "data" {
		return parts[2]
	}
	return ""
}

// defaultMessageHandler handles messages on unsubscribed topics
func (c *Client) defaultMessageHandler(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Received message on unhandled topic %s: %s", msg.Topic(), string(msg.Payload()))
}

// onConnect callback when connection is established
func (c *Client) onConnect(client mqtt.Client) {
	log.Println("MQTT client connected")
	c.isConnected = true
}

// onConnectionLost callback when connection is lost
func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
	c.isConnected = false

	if c.errorHandler != nil {
		c.errorHandler(fmt.Errorf("MQTT connection lost: %w", err))
	}
}

// PublishMaintenanceAlert publishes a maintenance notification for field
// crews subscribed to the alerts topic
func (c *Client) PublishMaintenanceAlert(payload string) error {
	topic := "assetiq/alerts"

	if token := c.client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish alert: %w", token.Error())
	}

	log.Printf("Published alert to %s: %s", topic, payload)
	return nil
}
