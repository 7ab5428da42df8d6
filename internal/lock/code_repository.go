package lock

import (
	"context"
	"database/sql"
	"fmt"
)

// CodeRepository defines the interface for access code persistence.
type CodeRepository interface {
	Create(ctx context.Context, c *AccessCode) error
	GetByID(ctx context.Context, id int64) (*AccessCode, error)
	List(ctx context.Context) ([]AccessCode, error)

	// ListActiveForLock returns every active code applicable to the
	// given lock: device-scoped codes plus all master codes.
	ListActiveForLock(ctx context.Context, lockID int64) ([]AccessCode, error)

	Update(ctx context.Context, c *AccessCode) error
	Delete(ctx context.Context, id int64) error
}

// SQLiteCodeRepository implements CodeRepository using SQLite.
type SQLiteCodeRepository struct {
	db *sql.DB
}

// NewSQLiteCodeRepository creates a new SQLite-backed access code repository.
func NewSQLiteCodeRepository(db *sql.DB) *SQLiteCodeRepository {
	return &SQLiteCodeRepository{db: db}
}

const codeColumns = `id, lock_id, code, name, is_active, valid_from, valid_until, created_at`

// Create inserts a new access code and fills in its assigned ID.
func (r *SQLiteCodeRepository) Create(ctx context.Context, c *AccessCode) error {
	const query = `INSERT INTO access_codes (lock_id, code, name, is_active, valid_from, valid_until)
		VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		nullInt(c.LockID), c.Code, nullIfEmpty(c.Name), c.IsActive,
		nullTime(c.ValidFrom), nullTime(c.ValidUntil))
	if err != nil {
		return fmt.Errorf("inserting access code: %w", err)
	}
	c.ID, _ = result.LastInsertId() //nolint:errcheck // SQLite always supports LastInsertId
	return nil
}

// GetByID returns a single access code by ID.
func (r *SQLiteCodeRepository) GetByID(ctx context.Context, id int64) (*AccessCode, error) {
	query := `SELECT ` + codeColumns + ` FROM access_codes WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	c, err := scanCodeRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("scanning access code: %w", err)
	}
	return c, nil
}

// List returns all access codes, master codes first.
func (r *SQLiteCodeRepository) List(ctx context.Context) ([]AccessCode, error) {
	query := `SELECT ` + codeColumns + ` FROM access_codes ORDER BY lock_id IS NOT NULL, lock_id, id`
	return r.queryCodes(ctx, query)
}

// ListActiveForLock returns active codes where lock_id is NULL (master)
// or matches the given lock.
func (r *SQLiteCodeRepository) ListActiveForLock(ctx context.Context, lockID int64) ([]AccessCode, error) {
	query := `SELECT ` + codeColumns + ` FROM access_codes
		WHERE is_active = 1 AND (lock_id IS NULL OR lock_id = ?) ORDER BY id`
	return r.queryCodes(ctx, query, lockID)
}

// Update updates an existing access code.
func (r *SQLiteCodeRepository) Update(ctx context.Context, c *AccessCode) error {
	const query = `UPDATE access_codes SET lock_id = ?, code = ?, name = ?,
		is_active = ?, valid_from = ?, valid_until = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		nullInt(c.LockID), c.Code, nullIfEmpty(c.Name), c.IsActive,
		nullTime(c.ValidFrom), nullTime(c.ValidUntil), c.ID)
	if err != nil {
		return fmt.Errorf("updating access code %d: %w", c.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// Delete removes an access code by ID.
func (r *SQLiteCodeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM access_codes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting access code %d: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// queryCodes executes a query and returns a slice of AccessCode.
func (r *SQLiteCodeRepository) queryCodes(ctx context.Context, query string, args ...any) ([]AccessCode, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying access codes: %w", err)
	}
	defer rows.Close()

	var codes []AccessCode
	for rows.Next() {
		c, err := scanCodeRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning access code row: %w", err)
		}
		codes = append(codes, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access code rows: %w", err)
	}
	return codes, nil
}

// scanCodeRow scans an access code via any Scan-shaped function.
func scanCodeRow(scan func(dest ...any) error) (*AccessCode, error) {
	var c AccessCode
	var lockID sql.NullInt64
	var name, validFrom, validUntil sql.NullString
	var createdAt string

	err := scan(&c.ID, &lockID, &c.Code, &name, &c.IsActive, &validFrom, &validUntil, &createdAt)
	if err != nil {
		return nil, err
	}
	if lockID.Valid {
		c.LockID = &lockID.Int64
	}
	c.Name = name.String
	c.ValidFrom = parseNullTime(validFrom)
	c.ValidUntil = parseNullTime(validUntil)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}
