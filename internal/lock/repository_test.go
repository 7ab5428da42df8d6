package lock

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE locks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			location TEXT,
			description TEXT,
			is_online INTEGER NOT NULL DEFAULT 0,
			is_locked INTEGER NOT NULL DEFAULT 1,
			is_key_present INTEGER NOT NULL DEFAULT 0,
			is_door_open INTEGER NOT NULL DEFAULT 0,
			last_seen TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE access_codes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lock_id INTEGER,
			code TEXT NOT NULL,
			name TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			valid_from TEXT,
			valid_until TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (lock_id) REFERENCES locks(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE rfid_cards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lock_id INTEGER,
			card_uid TEXT NOT NULL,
			name TEXT,
			card_type TEXT NOT NULL DEFAULT 'key_tag',
			is_active INTEGER NOT NULL DEFAULT 1,
			valid_from TEXT,
			valid_until TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (lock_id) REFERENCES locks(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE access_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lock_id INTEGER NOT NULL,
			access_type TEXT NOT NULL,
			access_method TEXT,
			success INTEGER NOT NULL,
			timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (lock_id) REFERENCES locks(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE pending_devices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL UNIQUE,
			first_seen TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			last_seen TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestLock inserts a lock and returns it with its assigned ID.
func createTestLock(t *testing.T, repo *SQLiteRepository, deviceID string) *Lock {
	t.Helper()

	l := &Lock{
		DeviceID: deviceID,
		Name:     "Test Lock " + deviceID,
		Location: "Workshop",
	}
	if err := repo.Create(context.Background(), l); err != nil {
		t.Fatalf("Create(%s): %v", deviceID, err)
	}
	return l
}

func TestCreateLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	l := createTestLock(t, repo, "front-door-01")

	if l.ID == 0 {
		t.Error("Create() did not assign an ID")
	}

	got, err := repo.GetByID(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DeviceID != "front-door-01" {
		t.Errorf("DeviceID = %q, want %q", got.DeviceID, "front-door-01")
	}
	if got.Location != "Workshop" {
		t.Errorf("Location = %q, want %q", got.Location, "Workshop")
	}
	if !got.IsLocked {
		t.Error("new lock should default to locked")
	}
	if got.IsOnline {
		t.Error("new lock should default to offline")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt was not populated")
	}
}

func TestCreateLockDuplicateDeviceID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	createTestLock(t, repo, "front-door-01")

	dup := &Lock{DeviceID: "front-door-01", Name: "Duplicate"}
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, ErrDuplicateDeviceID) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateDeviceID", err)
	}
}

func TestGetByDeviceID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	created := createTestLock(t, repo, "gate-02")

	got, err := repo.GetByDeviceID(context.Background(), "gate-02")
	if err != nil {
		t.Fatalf("GetByDeviceID: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}
}

func TestGetLockNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	if _, err := repo.GetByID(context.Background(), 999); !errors.Is(err, ErrLockNotFound) {
		t.Errorf("GetByID(999) error = %v, want ErrLockNotFound", err)
	}
	if _, err := repo.GetByDeviceID(context.Background(), "ghost"); !errors.Is(err, ErrLockNotFound) {
		t.Errorf("GetByDeviceID(ghost) error = %v, want ErrLockNotFound", err)
	}
}

func TestListLocks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	createTestLock(t, repo, "a-door")
	createTestLock(t, repo, "b-door")

	locks, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(locks) != 2 {
		t.Fatalf("expected 2 locks, got %d", len(locks))
	}
}

func TestUpdateLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	l := createTestLock(t, repo, "front-door-01")
	l.Name = "Renamed"
	l.Location = ""
	l.Description = "Main entrance"

	if err := repo.Update(context.Background(), l); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", got.Name, "Renamed")
	}
	if got.Location != "" {
		t.Errorf("Location = %q, want empty", got.Location)
	}
	if got.Description != "Main entrance" {
		t.Errorf("Description = %q, want %q", got.Description, "Main entrance")
	}
}

func TestUpdateLockNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.Update(context.Background(), &Lock{ID: 999, Name: "Ghost"})
	if !errors.Is(err, ErrLockNotFound) {
		t.Errorf("Update() error = %v, want ErrLockNotFound", err)
	}
}

func TestDeleteLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	l := createTestLock(t, repo, "front-door-01")

	if err := repo.Delete(context.Background(), l.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), l.ID); !errors.Is(err, ErrLockNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrLockNotFound", err)
	}

	if err := repo.Delete(context.Background(), l.ID); !errors.Is(err, ErrLockNotFound) {
		t.Errorf("second Delete() error = %v, want ErrLockNotFound", err)
	}
}

func TestDeleteLockCascadesCredentials(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	codes := NewSQLiteCodeRepository(db)

	l := createTestLock(t, repo, "front-door-01")

	code := &AccessCode{LockID: &l.ID, Code: "1234", IsActive: true}
	if err := codes.Create(context.Background(), code); err != nil {
		t.Fatalf("Create code: %v", err)
	}

	if err := repo.Delete(context.Background(), l.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := codes.GetByID(context.Background(), code.ID); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("code should cascade on lock delete, got err = %v", err)
	}
}

func TestUpdateReportedStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	l := createTestLock(t, repo, "front-door-01")

	keyPresent := true
	err := repo.UpdateReportedStatus(context.Background(), "front-door-01", ReportedStatus{
		IsLocked:     false,
		IsKeyPresent: &keyPresent,
	})
	if err != nil {
		t.Fatalf("UpdateReportedStatus: %v", err)
	}

	got, err := repo.GetByID(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsLocked {
		t.Error("IsLocked = true, want false")
	}
	if !got.IsKeyPresent {
		t.Error("IsKeyPresent = false, want true")
	}
	if !got.IsOnline {
		t.Error("status update should mark device online")
	}
	if got.IsDoorOpen {
		t.Error("IsDoorOpen should keep its previous value when omitted")
	}
}

func TestUpdateReportedStatusPreservesOmittedFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	l := createTestLock(t, repo, "front-door-01")

	// First frame sets key presence.
	keyPresent := true
	if err := repo.UpdateReportedStatus(context.Background(), "front-door-01", ReportedStatus{
		IsLocked:     true,
		IsKeyPresent: &keyPresent,
	}); err != nil {
		t.Fatalf("UpdateReportedStatus: %v", err)
	}

	// Second frame omits it; the stored value must survive.
	if err := repo.UpdateReportedStatus(context.Background(), "front-door-01", ReportedStatus{
		IsLocked: false,
	}); err != nil {
		t.Fatalf("UpdateReportedStatus: %v", err)
	}

	got, err := repo.GetByID(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsKeyPresent {
		t.Error("IsKeyPresent should survive a frame that omits it")
	}
	if got.IsLocked {
		t.Error("IsLocked = true, want false")
	}
}

func TestUpdateReportedStatusUnknownDevice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.UpdateReportedStatus(context.Background(), "ghost", ReportedStatus{IsLocked: true})
	if !errors.Is(err, ErrLockNotFound) {
		t.Errorf("UpdateReportedStatus() error = %v, want ErrLockNotFound", err)
	}
}

func TestTouch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	l := createTestLock(t, repo, "front-door-01")

	if err := repo.Touch(context.Background(), "front-door-01"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	got, err := repo.GetByID(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsOnline {
		t.Error("Touch should mark device online")
	}
	if got.LastSeen.IsZero() {
		t.Error("LastSeen was not populated")
	}
}

func TestTouchUnknownDevice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	if err := repo.Touch(context.Background(), "ghost"); !errors.Is(err, ErrLockNotFound) {
		t.Errorf("Touch() error = %v, want ErrLockNotFound", err)
	}
}
