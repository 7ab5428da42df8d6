package lock

import (
	"context"
	"database/sql"
	"fmt"
)

// CardRepository defines the interface for RFID card persistence.
type CardRepository interface {
	Create(ctx context.Context, c *RFIDCard) error
	GetByID(ctx context.Context, id int64) (*RFIDCard, error)
	List(ctx context.Context) ([]RFIDCard, error)

	// ListActiveForLock returns every active card scoped to the given
	// lock. Cards are device-scoped: master scoping does not apply.
	ListActiveForLock(ctx context.Context, lockID int64) ([]RFIDCard, error)

	Update(ctx context.Context, c *RFIDCard) error
	Delete(ctx context.Context, id int64) error
}

// SQLiteCardRepository implements CardRepository using SQLite.
type SQLiteCardRepository struct {
	db *sql.DB
}

// NewSQLiteCardRepository creates a new SQLite-backed RFID card repository.
func NewSQLiteCardRepository(db *sql.DB) *SQLiteCardRepository {
	return &SQLiteCardRepository{db: db}
}

const cardColumns = `id, lock_id, card_uid, name, card_type, is_active, valid_from, valid_until, created_at`

// Create inserts a new RFID card and fills in its assigned ID.
func (r *SQLiteCardRepository) Create(ctx context.Context, c *RFIDCard) error {
	const query = `INSERT INTO rfid_cards (lock_id, card_uid, name, card_type, is_active, valid_from, valid_until)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		nullInt(c.LockID), c.CardUID, nullIfEmpty(c.Name), c.CardType, c.IsActive,
		nullTime(c.ValidFrom), nullTime(c.ValidUntil))
	if err != nil {
		return fmt.Errorf("inserting rfid card: %w", err)
	}
	c.ID, _ = result.LastInsertId() //nolint:errcheck // SQLite always supports LastInsertId
	return nil
}

// GetByID returns a single RFID card by ID.
func (r *SQLiteCardRepository) GetByID(ctx context.Context, id int64) (*RFIDCard, error) {
	query := `SELECT ` + cardColumns + ` FROM rfid_cards WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	c, err := scanCardRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("scanning rfid card: %w", err)
	}
	return c, nil
}

// List returns all RFID cards ordered by lock then ID.
func (r *SQLiteCardRepository) List(ctx context.Context) ([]RFIDCard, error) {
	query := `SELECT ` + cardColumns + ` FROM rfid_cards ORDER BY lock_id IS NOT NULL, lock_id, id`
	return r.queryCards(ctx, query)
}

// ListActiveForLock returns active cards scoped to the given lock.
func (r *SQLiteCardRepository) ListActiveForLock(ctx context.Context, lockID int64) ([]RFIDCard, error) {
	query := `SELECT ` + cardColumns + ` FROM rfid_cards
		WHERE is_active = 1 AND lock_id = ? ORDER BY id`
	return r.queryCards(ctx, query, lockID)
}

// Update updates an existing RFID card.
func (r *SQLiteCardRepository) Update(ctx context.Context, c *RFIDCard) error {
	const query = `UPDATE rfid_cards SET lock_id = ?, card_uid = ?, name = ?,
		card_type = ?, is_active = ?, valid_from = ?, valid_until = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		nullInt(c.LockID), c.CardUID, nullIfEmpty(c.Name), c.CardType, c.IsActive,
		nullTime(c.ValidFrom), nullTime(c.ValidUntil), c.ID)
	if err != nil {
		return fmt.Errorf("updating rfid card %d: %w", c.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}

// Delete removes an RFID card by ID.
func (r *SQLiteCardRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rfid_cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting rfid card %d: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}

// queryCards executes a query and returns a slice of RFIDCard.
func (r *SQLiteCardRepository) queryCards(ctx context.Context, query string, args ...any) ([]RFIDCard, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rfid cards: %w", err)
	}
	defer rows.Close()

	var cards []RFIDCard
	for rows.Next() {
		c, err := scanCardRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning rfid card row: %w", err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rfid card rows: %w", err)
	}
	return cards, nil
}

// scanCardRow scans an RFID card via any Scan-shaped function.
func scanCardRow(scan func(dest ...any) error) (*RFIDCard, error) {
	var c RFIDCard
	var lockID sql.NullInt64
	var name, validFrom, validUntil sql.NullString
	var createdAt string

	err := scan(&c.ID, &lockID, &c.CardUID, &name, &c.CardType, &c.IsActive, &validFrom, &validUntil, &createdAt)
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
