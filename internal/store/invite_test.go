package store

import (
	"testing"
	"time"

	"github.com/danuwirya/homechore/internal/database"
)

func setupInviteTestDB(t *testing.T) (*InviteStore, *HouseGroupStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewInviteStore(db), NewHouseGroupStore(db)
}

func TestInviteCreateAndGet(t *testing.T) {
	is, gs := setupInviteTestDB(t)
	g, _ := gs.Create("Maple Street", "GRP00001", "founder")

	email := "bob@example.com"
	expires := time.Now().Add(72 * time.Hour).UTC()
	inv, err := is.Create("invx9999", g.ID, "founder", &email, &expires)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if inv.Code != "INVX9999" {
		t.Errorf("code = %q, want uppercased INVX9999", inv.Code)
	}
	if inv.Email == nil || *inv.Email != email {
		t.Errorf("email = %v, want %s", inv.Email, email)
	}
	if inv.Revoked {
		t.Error("new invite should not be revoked")
	}

	got, err := is.GetByCode("invx9999")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got == nil || got.ID != inv.ID {
		t.Fatalf("get by code returned %v", got)
	}
}

func TestInviteMarkUsed(t *testing.T) {
	is, gs := setupInviteTestDB(t)
	g, _ := gs.Create("Maple Street", "GRP00001", "founder")

	inv, _ := is.Create("INVX9999", g.ID, "founder", nil, nil)

	if err := is.MarkUsed(inv.ID, "joiner-1"); err != nil {
		t.Fatalf("mark used: %v", err)
	}

	got, _ := is.GetByCode(inv.Code)
	if got.UsedBy == nil || *got.UsedBy != "joiner-1" {
		t.Errorf("used_by = %v, want joiner-1", got.UsedBy)
	}

	// Second use is rejected
	if err := is.MarkUsed(inv.ID, "joiner-2"); err == nil {
		t.Fatal("expected error marking a used invite")
	}
}

func TestInviteMarkUsedRevoked(t *testing.T) {
	is, gs := setupInviteTestDB(t)
	g, _ := gs.Create("Maple Street", "GRP00001", "founder")

	inv, _ := is.Create("INVX9999", g.ID, "founder", nil, nil)
	if err := is.Revoke(inv.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if err := is.MarkUsed(inv.ID, "joiner-1"); err == nil {
		t.Fatal("expected error marking a revoked invite")
	}

	got, _ := is.GetByCode(inv.Code)
	if !got.Revoked {
		t.Error("expected revoked flag set")
	}
}

func TestInviteListByGroup(t *testing.T) {
	is, gs := setupInviteTestDB(t)
	g, _ := gs.Create("Maple Street", "GRP00001", "founder")
	other, _ := gs.Create("Oak Avenue", "GRP00002", "founder")

	is.Create("INVA0001", g.ID, "founder", nil, nil)
	is.Create("INVA0002", g.ID, "founder", nil, nil)
	is.Create("INVB0001", other.ID, "founder", nil, nil)

	invites, err := is.ListByGroup(g.ID)
	if err != nil {
		t.Fatalf("list by group: %v", err)
	}
	if len(invites) != 2 {
		t.Fatalf("expected 2 invites, got %d", len(invites))
	}
}
