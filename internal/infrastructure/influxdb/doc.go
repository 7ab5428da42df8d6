// Package influxdb provides InfluxDB connectivity for PineLock.
//
// It wraps the official influxdb-client-go v2 library with PineLock
// patterns for connection management, metric writing, and health
// monitoring.
//
// # Purpose
//
// This package handles time-series telemetry for:
//   - Access events (attempts, successes, failures per device)
//   - Device heartbeats and availability
//   - Lock state transitions
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "pinelock",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.RecordHeartbeat("front-door-01")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via
// a callback. Connection and health check errors are returned directly.
//
// Telemetry is optional infrastructure: every write method is a no-op
// on a nil or disconnected client, so call sites never need to guard.
package influxdb
