// Package messaging routes inbound device messages to their handlers.
//
// Lock devices publish JSON frames on per-device MQTT topics. The bridge
// subscribes to the device wildcards, parses each topic into a device ID
// and message type, and hands the frame to the dispatcher. The dispatcher
// shards work across a fixed pool of workers by hashing the device ID, so
// frames from one device are always processed in arrival order while
// different devices proceed in parallel.
//
// Handlers are registered per message type in a Registry. Each handler is
// a short unit of work: decode the payload, update the store, notify
// subscribers. A handler that panics or returns an error never takes down
// the dispatcher; the frame is logged and dropped.
//
// Frames from device IDs with no matching lock record are never discarded
// silently. Every handler records the sighting in the pending device
// store so the dashboard can offer the device for registration.
package messaging
