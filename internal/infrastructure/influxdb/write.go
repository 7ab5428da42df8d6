package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordAccessEvent writes an access attempt to the access_events
// measurement.
//
// The write is non-blocking; data is batched and sent asynchronously.
// ts is the attempt time as reported by the device.
//
// Example:
//
//	client.RecordAccessEvent("front-door-01", "pin", true, time.Now())
func (c *Client) RecordAccessEvent(deviceID, accessType string, success bool, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"access_events",
		map[string]string{
			"device_id":   deviceID,
			"access_type": accessType,
			"success":     strconv.FormatBool(success),
		},
		map[string]interface{}{
			"count": 1,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// RecordHeartbeat writes a heartbeat sighting to the heartbeats
// measurement. Gaps in this series show device outages.
func (c *Client) RecordHeartbeat(deviceID string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"heartbeats",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordLockState writes a lock state transition to the lock_state
// measurement.
func (c *Client) RecordLockState(deviceID string, locked bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"lock_state",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"locked": locked,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
