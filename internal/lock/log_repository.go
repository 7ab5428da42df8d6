package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// defaultLogLimit caps listing queries when no limit is given.
const defaultLogLimit = 100

// LogRepository defines the interface for the append-only access log.
type LogRepository interface {
	// Create appends a new log entry. Entries are never updated or
	// deduplicated: replayed frames append again.
	Create(ctx context.Context, entry *AccessLog) error

	List(ctx context.Context, limit int) ([]AccessLog, error)
	ListByLock(ctx context.Context, lockID int64, limit int) ([]AccessLog, error)
}

// SQLiteLogRepository implements LogRepository using SQLite.
type SQLiteLogRepository struct {
	db *sql.DB
}

// NewSQLiteLogRepository creates a new SQLite-backed access log repository.
func NewSQLiteLogRepository(db *sql.DB) *SQLiteLogRepository {
	return &SQLiteLogRepository{db: db}
}

// Create appends a new access log entry.
func (r *SQLiteLogRepository) Create(ctx context.Context, entry *AccessLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	const query = `INSERT INTO access_logs (lock_id, access_type, access_method, success, timestamp)
		VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		entry.LockID, entry.AccessType, nullIfEmpty(entry.AccessMethod),
		entry.Success, entry.Timestamp.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting access log: %w", err)
	}
	entry.ID, _ = result.LastInsertId() //nolint:errcheck // SQLite always supports LastInsertId
	return nil
}

// List returns the most recent log entries across all locks.
func (r *SQLiteLogRepository) List(ctx context.Context, limit int) ([]AccessLog, error) {
	const query = `SELECT id, lock_id, access_type, access_method, success, timestamp
		FROM access_logs ORDER BY timestamp DESC, id DESC LIMIT ?`
	return r.queryLogs(ctx, query, clampLimit(limit))
}

// ListByLock returns the most recent log entries for one lock.
func (r *SQLiteLogRepository) ListByLock(ctx context.Context, lockID int64, limit int) ([]AccessLog, error) {
	const query = `SELECT id, lock_id, access_type, access_method, success, timestamp
		FROM access_logs WHERE lock_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`
	return r.queryLogs(ctx, query, lockID, clampLimit(limit))
}

// clampLimit applies the default when a limit is missing or negative.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLogLimit
	}
	return limit
}

// queryLogs executes a query and returns a slice of AccessLog.
func (r *SQLiteLogRepository) queryLogs(ctx context.Context, query string, args ...any) ([]AccessLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying access logs: %w", err)
	}
	defer rows.Close()

	var entries []AccessLog
	for rows.Next() {
		var e AccessLog
		var method sql.NullString
		var timestamp string
		if err := rows.Scan(&e.ID, &e.LockID, &e.AccessType, &method, &e.Success, &timestamp); err != nil {
			return nil, fmt.Errorf("scanning access log row: %w", err)
		}
		e.AccessMethod = method.String
		e.Timestamp = parseTime(timestamp)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access log rows: %w", err)
	}
	return entries, nil
}
