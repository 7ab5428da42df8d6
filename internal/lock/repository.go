package lock

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for lock persistence operations.
type Repository interface {
	Create(ctx context.Context, l *Lock) error
	GetByID(ctx context.Context, id int64) (*Lock, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*Lock, error)
	List(ctx context.Context) ([]Lock, error)
	Update(ctx context.Context, l *Lock) error
	Delete(ctx context.Context, id int64) error

	// UpdateReportedStatus applies a device status frame: the reported
	// fields plus is_online=true and last_seen=now.
	UpdateReportedStatus(ctx context.Context, deviceID string, status ReportedStatus) error

	// Touch marks a device online and refreshes last_seen without
	// changing any reported field. Used by heartbeat and access frames.
	Touch(ctx context.Context, deviceID string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed lock repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const lockColumns = `id, device_id, name, location, description,
	is_online, is_locked, is_key_present, is_door_open, last_seen, created_at`

// Create inserts a new lock and fills in its assigned ID.
func (r *SQLiteRepository) Create(ctx context.Context, l *Lock) error {
	const query = `INSERT INTO locks (device_id, name, location, description)
		VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		l.DeviceID, l.Name, nullIfEmpty(l.Location), nullIfEmpty(l.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDeviceID
		}
		return fmt.Errorf("inserting lock %s: %w", l.DeviceID, err)
	}
	l.ID, _ = result.LastInsertId() //nolint:errcheck // SQLite always supports LastInsertId
	return nil
}

// GetByID returns a single lock by its numeric ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Lock, error) {
	query := `SELECT ` + lockColumns + ` FROM locks WHERE id = ?`
	return scanLock(r.db.QueryRowContext(ctx, query, id))
}

// GetByDeviceID returns a single lock by its device ID.
func (r *SQLiteRepository) GetByDeviceID(ctx context.Context, deviceID string) (*Lock, error) {
	query := `SELECT ` + lockColumns + ` FROM locks WHERE device_id = ?`
	return scanLock(r.db.QueryRowContext(ctx, query, deviceID))
}

// List returns all locks ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Lock, error) {
	query := `SELECT ` + lockColumns + ` FROM locks ORDER BY name, device_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying locks: %w", err)
	}
	defer rows.Close()

	var locks []Lock
	for rows.Next() {
		l, err := scanLockRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lock row: %w", err)
		}
		locks = append(locks, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lock rows: %w", err)
	}
	return locks, nil
}

// Update updates a lock's identity and metadata fields.
// Reported status fields are owned by UpdateReportedStatus and Touch.
func (r *SQLiteRepository) Update(ctx context.Context, l *Lock) error {
	const query = `UPDATE locks SET name = ?, location = ?, description = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		l.Name, nullIfEmpty(l.Location), nullIfEmpty(l.Description), l.ID)
	if err != nil {
		return fmt.Errorf("updating lock %d: %w", l.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrLockNotFound
	}
	return nil
}

// Delete removes a lock by ID. Credentials and logs cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM locks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting lock %d: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrLockNotFound
	}
	return nil
}

// UpdateReportedStatus applies a device status frame to the stored row.
// COALESCE keeps the previous value for fields the firmware omitted.
func (r *SQLiteRepository) UpdateReportedStatus(ctx context.Context, deviceID string, status ReportedStatus) error {
	const query = `UPDATE locks SET
		is_locked = ?,
		is_key_present = COALESCE(?, is_key_present),
		is_door_open = COALESCE(?, is_door_open),
		is_online = 1,
		last_seen = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE device_id = ?`
	result, err := r.db.ExecContext(ctx, query,
		status.IsLocked, nullBool(status.IsKeyPresent), nullBool(status.IsDoorOpen), deviceID)
	if err != nil {
		return fmt.Errorf("updating status for %s: %w", deviceID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrLockNotFound
	}
	return nil
}

// Touch marks a device online and refreshes last_seen.
func (r *SQLiteRepository) Touch(ctx context.Context, deviceID string) error {
	const query = `UPDATE locks SET is_online = 1,
		last_seen = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE device_id = ?`
	result, err := r.db.ExecContext(ctx, query, deviceID)
	if err != nil {
		return fmt.Errorf("touching lock %s: %w", deviceID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrLockNotFound
	}
	return nil
}

// scanLock scans a single row into a Lock (for QueryRow).
func scanLock(row *sql.Row) (*Lock, error) {
	var l Lock
	var location, description sql.NullString
	var lastSeen, createdAt string

	err := row.Scan(&l.ID, &l.DeviceID, &l.Name, &location, &description,
		&l.IsOnline, &l.IsLocked, &l.IsKeyPresent, &l.IsDoorOpen, &lastSeen, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLockNotFound
		}
		return nil, fmt.Errorf("scanning lock: %w", err)
	}
	l.Location = location.String
	l.Description = description.String
	l.LastSeen = parseTime(lastSeen)
	l.CreatedAt = parseTime(createdAt)
	return &l, nil
}

// scanLockRow scans a lock from a Rows cursor.
func scanLockRow(rows *sql.Rows) (*Lock, error) {
	var l Lock
	var location, description sql.NullString
	var lastSeen, createdAt string

	err := rows.Scan(&l.ID, &l.DeviceID, &l.Name, &location, &description,
		&l.IsOnline, &l.IsLocked, &l.IsKeyPresent, &l.IsDoorOpen, &lastSeen, &createdAt)
	if err != nil {
		return nil, err
	}
	l.Location = location.String
	l.Description = description.String
	l.LastSeen = parseTime(lastSeen)
	l.CreatedAt = parseTime(createdAt)
	return &l, nil
}

// =============================================================================
// Shared scan/convert helpers
// =============================================================================

// nullIfEmpty converts an empty string to a SQL NULL.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullBool converts a *bool to sql.NullBool for COALESCE-style updates.
func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// nullInt converts a *int64 to sql.NullInt64 for nullable columns.
func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// nullTime converts a *time.Time to a nullable RFC3339 string.
func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseNullTime parses an optional ISO 8601 timestamp from SQLite.
func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
