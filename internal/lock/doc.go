// Package lock provides the persistent domain model for the PineLock fleet.
//
// It defines the entities the server reconciles against bus traffic:
// Lock (one physical access-control unit, addressed by its stable
// device_id), AccessCode (PIN credentials, device-scoped or master),
// RFIDCard (key tags and access cards), AccessLog (append-only audit
// trail) and PendingDevice (unregistered hardware seen on the bus).
//
// Each entity has a Repository interface with a SQLite implementation.
// Repositories are short-lived units of work: every call runs against
// the pooled connection, no transactions span calls.
//
// # Thread Safety
//
// The SQLite repositories are safe for concurrent use from multiple
// goroutines (WAL mode, single pooled connection).
package lock
