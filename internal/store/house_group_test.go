package store

import (
	"testing"

	"github.com/danuwirya/homechore/internal/database"
)

func setupGroupTestDB(t *testing.T) *HouseGroupStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseGroupStore(db)
}

func TestHouseGroupCRUD(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, err := gs.Create("Maple Street", "ABCD1234", "founder")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.Name != "Maple Street" {
		t.Errorf("name = %q, want Maple Street", g.Name)
	}
	if g.InviteCode != "ABCD1234" {
		t.Errorf("invite code = %q, want ABCD1234", g.InviteCode)
	}

	got, err := gs.GetByID(g.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.ID != g.ID {
		t.Fatalf("get by id returned %v", got)
	}

	if err := gs.Delete(g.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	gone, _ := gs.GetByID(g.ID)
	if gone != nil {
		t.Error("expected nil for deleted group")
	}
}

func TestGetByInviteCodeCaseInsensitive(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, err := gs.Create("Maple Street", "ABCD1234", "founder")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	got, err := gs.GetByInviteCode("abcd1234")
	if err != nil {
		t.Fatalf("get by invite code: %v", err)
	}
	if got == nil || got.ID != g.ID {
		t.Fatalf("lowercase lookup returned %v", got)
	}

	missing, err := gs.GetByInviteCode("ZZZZ9999")
	if err != nil {
		t.Fatalf("get missing code: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown code")
	}
}

func TestSetInviteCode(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, _ := gs.Create("Maple Street", "ABCD1234", "founder")

	updated, err := gs.SetInviteCode(g.ID, "EFGH5678")
	if err != nil {
		t.Fatalf("set invite code: %v", err)
	}
	if updated.InviteCode != "EFGH5678" {
		t.Errorf("invite code = %q, want EFGH5678", updated.InviteCode)
	}

	// Old code no longer resolves
	old, _ := gs.GetByInviteCode("ABCD1234")
	if old != nil {
		t.Error("old invite code should not resolve")
	}

	none, err := gs.SetInviteCode("no-such-group", "IJKL9012")
	if err != nil {
		t.Fatalf("set code on missing group: %v", err)
	}
	if none != nil {
		t.Error("expected nil result for missing group")
	}
}

func TestInviteCodeUniqueViolation(t *testing.T) {
	gs := setupGroupTestDB(t)

	gs.Create("First", "SAME0000", "founder")
	_, err := gs.Create("Second", "SAME0000", "founder")
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation = false for %v", err)
	}
}
