package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PendingRepository defines the interface for unregistered device tracking.
type PendingRepository interface {
	// Upsert records a sighting of an unregistered device: first
	// sighting inserts the row, later sightings refresh last_seen.
	Upsert(ctx context.Context, deviceID string) error

	List(ctx context.Context) ([]PendingDevice, error)
	DeleteByDeviceID(ctx context.Context, deviceID string) error

	// ExpireBefore removes entries whose last_seen is older than the
	// cutoff. Invoked lazily from the dashboard read path, there is no
	// background sweep.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLitePendingRepository implements PendingRepository using SQLite.
type SQLitePendingRepository struct {
	db *sql.DB
}

// NewSQLitePendingRepository creates a new SQLite-backed pending device repository.
func NewSQLitePendingRepository(db *sql.DB) *SQLitePendingRepository {
	return &SQLitePendingRepository{db: db}
}

// Upsert records a sighting of an unregistered device.
func (r *SQLitePendingRepository) Upsert(ctx context.Context, deviceID string) error {
	const query = `INSERT INTO pending_devices (device_id)
		VALUES (?)
		ON CONFLICT(device_id) DO UPDATE SET
			last_seen = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`
	if _, err := r.db.ExecContext(ctx, query, deviceID); err != nil {
		return fmt.Errorf("upserting pending device %s: %w", deviceID, err)
	}
	return nil
}

// List returns all pending devices, most recently seen first.
func (r *SQLitePendingRepository) List(ctx context.Context) ([]PendingDevice, error) {
	const query = `SELECT id, device_id, first_seen, last_seen
		FROM pending_devices ORDER BY last_seen DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying pending devices: %w", err)
	}
	defer rows.Close()

	var devices []PendingDevice
	for rows.Next() {
		var d PendingDevice
		var firstSeen, lastSeen string
		if err := rows.Scan(&d.ID, &d.DeviceID, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning pending device row: %w", err)
		}
		d.FirstSeen = parseTime(firstSeen)
		d.LastSeen = parseTime(lastSeen)
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending device rows: %w", err)
	}
	return devices, nil
}

// DeleteByDeviceID removes a pending entry, typically when the operator
// registers the device as a lock.
func (r *SQLitePendingRepository) DeleteByDeviceID(ctx context.Context, deviceID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM pending_devices WHERE device_id = ?", deviceID)
	if err != nil {
		return fmt.Errorf("deleting pending device %s: %w", deviceID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrPendingNotFound
	}
	return nil
}

// ExpireBefore removes entries not seen since the cutoff.
func (r *SQLitePendingRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM pending_devices WHERE last_seen < ?",
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("expiring pending devices: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	return n, nil
}
