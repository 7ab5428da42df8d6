// Package mqtt provides MQTT client connectivity for the PineLock server.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for server offline detection
//   - Connection health monitoring
//
// # Architecture
//
// PineLock uses MQTT as the message bus between the server and the lock
// devices in the field. The broker decouples the server from firmware
// delivery details: devices publish status, access events and heartbeats,
// and the server pushes commands and credential sync payloads back.
//
//	PineLock Server ↔ MQTT Broker ↔ Lock Devices
//
// All device traffic follows the scheme {prefix}/{device_id}/{message_type}.
// Topic construction and parsing live in topics.go; use those helpers
// rather than formatting topic strings by hand.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Sync payloads carry PIN codes and card UIDs: never log them
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
//
//	// Subscribe to all device status updates
//	err = client.Subscribe(topics.AllStatus(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Send a lock command
//	client.Publish(topics.DeviceCommand("front-door-01"), []byte(`{"action":"lock"}`), 1, false)
package mqtt
