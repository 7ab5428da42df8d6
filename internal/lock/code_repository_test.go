package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateAndGetCode(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteCodeRepository(db)

	l := createTestLock(t, locks, "front-door-01")

	validFrom := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	code := &AccessCode{
		LockID:    &l.ID,
		Code:      "1234",
		Name:      "Cleaner",
		IsActive:  true,
		ValidFrom: &validFrom,
	}
	if err := repo.Create(context.Background(), code); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if code.ID == 0 {
		t.Error("Create() did not assign an ID")
	}

	got, err := repo.GetByID(context.Background(), code.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Code != "1234" {
		t.Errorf("Code = %q, want %q", got.Code, "1234")
	}
	if got.LockID == nil || *got.LockID != l.ID {
		t.Errorf("LockID = %v, want %d", got.LockID, l.ID)
	}
	if got.ValidFrom == nil || !got.ValidFrom.Equal(validFrom) {
		t.Errorf("ValidFrom = %v, want %v", got.ValidFrom, validFrom)
	}
	if got.ValidUntil != nil {
		t.Errorf("ValidUntil = %v, want nil", got.ValidUntil)
	}
}

func TestCreateMasterCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteCodeRepository(db)

	code := &AccessCode{Code: "9999", Name: "Master", IsActive: true}
	if err := repo.Create(context.Background(), code); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(context.Background(), code.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LockID != nil {
		t.Errorf("LockID = %v, want nil for master code", got.LockID)
	}
	if !got.IsMaster() {
		t.Error("IsMaster() = false, want true")
	}
}

func TestGetCodeNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteCodeRepository(db)

	if _, err := repo.GetByID(context.Background(), 999); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("GetByID(999) error = %v, want ErrCodeNotFound", err)
	}
}

// TestListActiveForLock verifies the applicability rule: active codes
// scoped to the lock plus active master codes, nothing else.
func TestListActiveForLockCodes(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteCodeRepository(db)

	front := createTestLock(t, locks, "front-door-01")
	back := createTestLock(t, locks, "back-door-01")

	ctx := context.Background()
	seed := []AccessCode{
		{LockID: &front.ID, Code: "1234", IsActive: true},  // applies
		{Code: "9999", IsActive: true},                     // master, applies
		{LockID: &front.ID, Code: "0000", IsActive: false}, // inactive
		{LockID: &back.ID, Code: "5678", IsActive: true},   // other lock
		{Code: "8888", IsActive: false},                    // inactive master
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create seed code %d: %v", i, err)
		}
	}

	codes, err := repo.ListActiveForLock(ctx, front.ID)
	if err != nil {
		t.Fatalf("ListActiveForLock: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("expected 2 applicable codes, got %d", len(codes))
	}

	values := map[string]bool{}
	for _, c := range codes {
		values[c.Code] = true
	}
	if !values["1234"] || !values["9999"] {
		t.Errorf("applicable codes = %v, want 1234 and 9999", values)
	}
}

func TestUpdateCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteCodeRepository(db)

	code := &AccessCode{Code: "9999", IsActive: true}
	if err := repo.Create(context.Background(), code); err != nil {
		t.Fatalf("Create: %v", err)
	}

	code.Code = "4321"
	code.IsActive = false
	if err := repo.Update(context.Background(), code); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(context.Background(), code.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Code != "4321" {
		t.Errorf("Code = %q, want %q", got.Code, "4321")
	}
	if got.IsActive {
		t.Error("IsActive = true, want false")
	}
}

func TestUpdateCodeNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteCodeRepository(db)

	err := repo.Update(context.Background(), &AccessCode{ID: 999, Code: "1234"})
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("Update() error = %v, want ErrCodeNotFound", err)
	}
}

func TestDeleteCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteCodeRepository(db)

	code := &AccessCode{Code: "9999", IsActive: true}
	if err := repo.Create(context.Background(), code); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(context.Background(), code.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(context.Background(), code.ID); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("second Delete() error = %v, want ErrCodeNotFound", err)
	}
}
