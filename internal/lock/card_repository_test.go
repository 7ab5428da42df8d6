package lock

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAndGetCard(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteCardRepository(db)

	l := createTestLock(t, locks, "front-door-01")

	card := &RFIDCard{
		LockID:   &l.ID,
		CardUID:  "AA:BB:CC:DD",
		Name:     "House key tag",
		CardType: CardTypeKeyTag,
		IsActive: true,
	}
	if err := repo.Create(context.Background(), card); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if card.ID == 0 {
		t.Error("Create() did not assign an ID")
	}

	got, err := repo.GetByID(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CardUID != "AA:BB:CC:DD" {
		t.Errorf("CardUID = %q, want %q", got.CardUID, "AA:BB:CC:DD")
	}
	if got.CardType != CardTypeKeyTag {
		t.Errorf("CardType = %q, want %q", got.CardType, CardTypeKeyTag)
	}
}

func TestGetCardNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteCardRepository(db)

	if _, err := repo.GetByID(context.Background(), 999); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("GetByID(999) error = %v, want ErrCardNotFound", err)
	}
}

// TestListActiveForLockCards verifies cards are strictly device-scoped:
// other locks' cards and inactive cards are excluded.
func TestListActiveForLockCards(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteCardRepository(db)

	front := createTestLock(t, locks, "front-door-01")
	back := createTestLock(t, locks, "back-door-01")

	ctx := context.Background()
	seed := []RFIDCard{
		{LockID: &front.ID, CardUID: "AA:BB", CardType: CardTypeKeyTag, IsActive: true},
		{LockID: &front.ID, CardUID: "CC:DD", CardType: CardTypeAccess, IsActive: true},
		{LockID: &front.ID, CardUID: "EE:FF", CardType: CardTypeAccess, IsActive: false},
		{LockID: &back.ID, CardUID: "11:22", CardType: CardTypeAccess, IsActive: true},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create seed card %d: %v", i, err)
		}
	}

	cards, err := repo.ListActiveForLock(ctx, front.ID)
	if err != nil {
		t.Fatalf("ListActiveForLock: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 active cards, got %d", len(cards))
	}

	uids := map[string]bool{}
	for _, c := range cards {
		uids[c.CardUID] = true
	}
	if !uids["AA:BB"] || !uids["CC:DD"] {
		t.Errorf("active cards = %v, want AA:BB and CC:DD", uids)
	}
}

func TestUpdateCard(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteCardRepository(db)

	l := createTestLock(t, locks, "front-door-01")

	card := &RFIDCard{LockID: &l.ID, CardUID: "AA:BB", CardType: CardTypeAccess, IsActive: true}
	if err := repo.Create(context.Background(), card); err != nil {
		t.Fatalf("Create: %v", err)
	}

	card.CardUID = "FF:00"
	card.IsActive = false
	if err := repo.Update(context.Background(), card); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CardUID != "FF:00" {
		t.Errorf("CardUID = %q, want %q", got.CardUID, "FF:00")
	}
	if got.IsActive {
		t.Error("IsActive = true, want false")
	}
}

func TestDeleteCard(t *testing.T) {
	db := setupTestDB(t)
	locks := NewSQLiteRepository(db)
	repo := NewSQLiteCardRepository(db)

	l := createTestLock(t, locks, "front-door-01")

	card := &RFIDCard{LockID: &l.ID, CardUID: "AA:BB", CardType: CardTypeKeyTag, IsActive: true}
	if err := repo.Create(context.Background(), card); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(context.Background(), card.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(context.Background(), card.ID); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("second Delete() error = %v, want ErrCardNotFound", err)
	}
}
