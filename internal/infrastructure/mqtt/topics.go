package mqtt

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "pinelock"

// Message type segments per the PineLock device wire contract.
// Every device topic has the shape {prefix}/{device_id}/{message_type}.
//
// Inbound (device to server): status, access, heartbeat, sync, alert.
// Outbound (server to device): command, sync, config.
const (
	TypeStatus    = "status"
	TypeAccess    = "access"
	TypeHeartbeat = "heartbeat"
	TypeSync      = "sync"
	TypeAlert     = "alert"
	TypeCommand   = "command"
	TypeConfig    = "config"
)

// topicSegments is the number of segments in a device topic.
const topicSegments = 3

// Topics builds and parses PineLock MQTT topics for a configured prefix.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
//	cmdTopic := topics.DeviceCommand("front-door-01")
//	// Returns: "pinelock/front-door-01/command"
type Topics struct {
	prefix string
}

// NewTopics creates a topic builder for the given prefix.
// An empty prefix falls back to DefaultPrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the configured topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Device returns the topic for an arbitrary message type to or from a device.
//
// Example: pinelock/front-door-01/status
func (t Topics) Device(deviceID, messageType string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix, deviceID, messageType)
}

// DeviceCommand returns the topic for lock/unlock commands to a device.
//
// Example: pinelock/front-door-01/command
func (t Topics) DeviceCommand(deviceID string) string {
	return t.Device(deviceID, TypeCommand)
}

// DeviceSync returns the topic for credential sync payloads to a device.
// Devices publish sync requests on the same topic, so the server both
// publishes here and subscribes via AllSync.
//
// Example: pinelock/front-door-01/sync
func (t Topics) DeviceSync(deviceID string) string {
	return t.Device(deviceID, TypeSync)
}

// DeviceConfig returns the topic for configuration updates to a device.
//
// Example: pinelock/front-door-01/config
func (t Topics) DeviceConfig(deviceID string) string {
	return t.Device(deviceID, TypeConfig)
}

// ServerState returns the topic carrying the server's own online/offline
// status, including the LWT. The "server" segment sits where a device ID
// would, but "state" is not a device message type so the device
// subscriptions never match it.
//
// Example: pinelock/server/state
func (t Topics) ServerState() string {
	return fmt.Sprintf("%s/server/state", t.prefix)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllStatus returns a pattern matching status reports from every device.
//
// Pattern: pinelock/+/status
func (t Topics) AllStatus() string {
	return t.Device("+", TypeStatus)
}

// AllAccess returns a pattern matching access events from every device.
//
// Pattern: pinelock/+/access
func (t Topics) AllAccess() string {
	return t.Device("+", TypeAccess)
}

// AllHeartbeat returns a pattern matching heartbeats from every device.
//
// Pattern: pinelock/+/heartbeat
func (t Topics) AllHeartbeat() string {
	return t.Device("+", TypeHeartbeat)
}

// AllSync returns a pattern matching sync requests from every device.
//
// Pattern: pinelock/+/sync
func (t Topics) AllSync() string {
	return t.Device("+", TypeSync)
}

// AllAlert returns a pattern matching alerts from every device.
//
// Pattern: pinelock/+/alert
func (t Topics) AllAlert() string {
	return t.Device("+", TypeAlert)
}

// Parse extracts the device ID and message type from a device topic.
//
// Topics with fewer than three segments or empty segments are rejected;
// callers drop those frames silently. Extra trailing segments are
// ignored, matching the subscription wildcards which never produce them.
func (t Topics) Parse(topic string) (deviceID, messageType string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < topicSegments {
		return "", "", false
	}
	if parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}
