package lock

import (
	"context"
	"testing"
	"time"
)

func TestCreateLogAppendsAlways(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteLogRepository(db)

	l := createTestLock(t, locks, "front-door-01")
	ctx := context.Background()

	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := AccessLog{
		LockID:       l.ID,
		AccessType:   AccessTypePIN,
		AccessMethod: "1234",
		Success:      true,
		Timestamp:    ts,
	}

	// Identical entries must both land: the log never deduplicates.
	first := entry
	second := entry
	if err := repo.Create(ctx, &first); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if err := repo.Create(ctx, &second); err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if first.ID == second.ID {
		t.Error("duplicate entries should get distinct IDs")
	}

	entries, err := repo.ListByLock(ctx, l.ID, 0)
	if err != nil {
		t.Fatalf("ListByLock: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", entries[0].Timestamp, ts)
	}
}

func TestCreateLogDefaultsTimestamp(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteLogRepository(db)

	l := createTestLock(t, locks, "front-door-01")

	entry := &AccessLog{LockID: l.ID, AccessType: AccessTypeRemote, Success: true}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entry.Timestamp.IsZero() {
		t.Error("Create() should default a zero timestamp to now")
	}
}

func TestListByLockLimit(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteLogRepository(db)

	l := createTestLock(t, locks, "front-door-01")
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &AccessLog{
			LockID:     l.ID,
			AccessType: AccessTypeRFID,
			Success:    i%2 == 0,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	entries, err := repo.ListByLock(ctx, l.ID, 3)
	if err != nil {
		t.Fatalf("ListByLock: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Newest first.
	want := base.Add(4 * time.Minute)
	if !entries[0].Timestamp.Equal(want) {
		t.Errorf("first entry timestamp = %v, want %v", entries[0].Timestamp, want)
	}
}

func TestListAcrossLocks(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteLogRepository(db)

	front := createTestLock(t, locks, "front-door-01")
	back := createTestLock(t, locks, "back-door-01")
	ctx := context.Background()

	for _, lockID := range []int64{front.ID, back.ID} {
		entry := &AccessLog{LockID: lockID, AccessType: AccessTypePIN, Success: true}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	entries, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
