package mqtt

import (
	"encoding/json"
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "pinelock/front-door-01/command")
//   - payload: The message payload (typically JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// QoS Levels:
//   - 0: At most once (fire and forget)
//   - 1: At least once (guaranteed delivery, may duplicate)
//   - 2: Exactly once (guaranteed, no duplicates, higher overhead)
//
// Retained Messages:
//   - When true, broker stores the last message for each topic
//   - Use for state topics (server status)
//   - Don't use for commands or sync payloads
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
//
// Example:
//
//	topic := client.Topics().DeviceCommand("front-door-01")
//	err := client.Publish(topic, []byte(`{"action":"lock"}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	// Validate inputs
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	// Check connection state
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Publish with timeout
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishJSON marshals the payload and publishes it with the configured
// default QoS. This is the common path for device-bound messages, which
// are all JSON objects.
func (c *Client) PublishJSON(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshalling payload: %w", ErrPublishFailed, err)
	}
	return c.Publish(topic, data, byte(c.cfg.QoS), false)
}

// PublishDevice marshals the payload and publishes it to the device topic
// {prefix}/{device_id}/{message_type}.
func (c *Client) PublishDevice(deviceID, messageType string, payload any) error {
	return c.PublishJSON(c.topics.Device(deviceID, messageType), payload)
}

// RequestSync publishes a sync request on the device's sync topic, the
// same frame a device sends on boot. The server's own subscription picks
// it up and answers with a fresh credential snapshot, so a sync can be
// forced through the broker without touching the device.
func (c *Client) RequestSync(deviceID string) error {
	return c.PublishJSON(c.topics.DeviceSync(deviceID), map[string]string{"request": TypeSync})
}
