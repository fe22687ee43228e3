package task

import (
	"errors"
	"testing"
	"time"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/database"
	"github.com/danuwirya/homechore/internal/model"
	"github.com/danuwirya/homechore/internal/store"
)

func setupManager(t *testing.T) (*Manager, *store.UserStore, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gs := store.NewHouseGroupStore(db)
	g, err := gs.Create("Maple Street", "GRP00001", "founder")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	us := store.NewUserStore(db)
	return NewManager(store.NewTaskStore(db), us), us, g.ID
}

func seedMember(t *testing.T, us *store.UserStore, groupID, name, role string) *model.User {
	t.Helper()
	u, err := us.Create("", name, name+"@example.com", groupID, role)
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func TestManagerCreate(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")
	member := seedMember(t, us, groupID, "bob", "member")

	created, err := m.Create(groupID, admin.ID, CreateInput{
		Title:      "Dishes",
		AssignedTo: member.ID,
		Deadline:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != model.TaskStatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if created.Overdue {
		t.Error("future deadline should not be overdue")
	}
}

func TestManagerCreateValidation(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")
	member := seedMember(t, us, groupID, "bob", "member")

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing title", CreateInput{AssignedTo: member.ID, Deadline: time.Now()}},
		{"missing assignee", CreateInput{Title: "Dishes", Deadline: time.Now()}},
		{"missing deadline", CreateInput{Title: "Dishes", AssignedTo: member.ID}},
		{"unknown assignee", CreateInput{Title: "Dishes", AssignedTo: "ghost", Deadline: time.Now()}},
	}
	for _, tc := range cases {
		if _, err := m.Create(groupID, admin.ID, tc.in); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: got %v, want validation error", tc.name, err)
		}
	}
}

func TestManagerCreateCrossGroupAssignee(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")
	outsider := seedMember(t, us, "", "carol", "member")

	_, err := m.Create(groupID, admin.ID, CreateInput{
		Title:      "Dishes",
		AssignedTo: outsider.ID,
		Deadline:   time.Now().Add(time.Hour),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("cross-group assignee: got %v, want validation error", err)
	}
}

func TestManagerListRoleScoping(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")
	member := seedMember(t, us, groupID, "bob", "member")

	deadline := time.Now().Add(24 * time.Hour)
	m.Create(groupID, admin.ID, CreateInput{Title: "Mine", AssignedTo: member.ID, Deadline: deadline})
	m.Create(groupID, admin.ID, CreateInput{Title: "Admin's", AssignedTo: admin.ID, Deadline: deadline})

	all, err := m.List(groupID, admin.ID, "admin", ListOptions{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin sees %d tasks, want 2", len(all))
	}

	// Members only ever see their own assignments
	mine, err := m.List(groupID, member.ID, "member", ListOptions{})
	if err != nil {
		t.Fatalf("member list: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "Mine" {
		t.Fatalf("member list = %v", mine)
	}

	// OnlyMine narrows the admin view too
	own, err := m.List(groupID, admin.ID, "admin", ListOptions{OnlyMine: true})
	if err != nil {
		t.Fatalf("only-mine list: %v", err)
	}
	if len(own) != 1 || own[0].Title != "Admin's" {
		t.Fatalf("only-mine list = %v", own)
	}
}

func TestManagerListMarksOverdue(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")

	m.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	m.Create(groupID, admin.ID, CreateInput{Title: "Late", AssignedTo: admin.ID, Deadline: time.Now().Add(time.Hour)})

	tasks, err := m.List(groupID, admin.ID, "admin", ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !tasks[0].Overdue {
		t.Error("pending task past deadline should be overdue")
	}
}

func TestManagerGetCrossGroup(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")

	created, _ := m.Create(groupID, admin.ID, CreateInput{Title: "Dishes", AssignedTo: admin.ID, Deadline: time.Now().Add(time.Hour)})

	if _, err := m.Get(created.ID, "other-group"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-group get: got %v, want not found", err)
	}
	if _, err := m.Get("no-such-task", groupID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing get: got %v, want not found", err)
	}
}

func TestUpdateAdmin(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")
	member := seedMember(t, us, groupID, "bob", "member")

	created, _ := m.Create(groupID, admin.ID, CreateInput{Title: "Dishes", AssignedTo: member.ID, Deadline: time.Now().Add(time.Hour)})

	title := "Dishes and counters"
	status := model.TaskStatusVerified
	updated, err := m.UpdateAdmin(created.ID, groupID, AdminPatch{Title: &title, Status: &status})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Title != title || updated.Status != status {
		t.Errorf("updated = %+v", updated)
	}

	// Empty patch and bad status are rejected
	if _, err := m.UpdateAdmin(created.ID, groupID, AdminPatch{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty patch: got %v, want validation error", err)
	}
	bogus := "done"
	if _, err := m.UpdateAdmin(created.ID, groupID, AdminPatch{Status: &bogus}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad status: got %v, want validation error", err)
	}
}

func TestUpdateMember(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")
	member := seedMember(t, us, groupID, "bob", "member")

	created, _ := m.Create(groupID, admin.ID, CreateInput{Title: "Dishes", AssignedTo: member.ID, Deadline: time.Now().Add(time.Hour)})

	proof := "https://cdn.example.com/proof.png"
	completed := model.TaskStatusCompleted
	updated, err := m.UpdateMember(created.ID, groupID, MemberPatch{Status: &completed, ProofImageURL: &proof})
	if err != nil {
		t.Fatalf("member update: %v", err)
	}
	if updated.Status != model.TaskStatusCompleted {
		t.Errorf("status = %q, want completed", updated.Status)
	}
	if updated.ProofImageURL == nil || *updated.ProofImageURL != proof {
		t.Errorf("proof = %v", updated.ProofImageURL)
	}
}

func TestUpdateMemberDropsForbiddenStatus(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")
	member := seedMember(t, us, groupID, "bob", "member")

	created, _ := m.Create(groupID, admin.ID, CreateInput{Title: "Dishes", AssignedTo: member.ID, Deadline: time.Now().Add(time.Hour)})

	// A member cannot self-verify; with nothing else in the patch the
	// update degenerates to a no-op and fails
	verified := model.TaskStatusVerified
	if _, err := m.UpdateMember(created.ID, groupID, MemberPatch{Status: &verified}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("verify attempt: got %v, want validation error", err)
	}

	// The forbidden status is dropped but the proof still lands
	proof := "https://cdn.example.com/proof.png"
	updated, err := m.UpdateMember(created.ID, groupID, MemberPatch{Status: &verified, ProofImageURL: &proof})
	if err != nil {
		t.Fatalf("mixed patch: %v", err)
	}
	if updated.Status != model.TaskStatusPending {
		t.Errorf("status = %q, want pending (verify dropped)", updated.Status)
	}
	if updated.ProofImageURL == nil || *updated.ProofImageURL != proof {
		t.Errorf("proof = %v", updated.ProofImageURL)
	}
}

func TestManagerDelete(t *testing.T) {
	m, us, groupID := setupManager(t)
	admin := seedMember(t, us, groupID, "alice", "admin")

	created, _ := m.Create(groupID, admin.ID, CreateInput{Title: "Dishes", AssignedTo: admin.ID, Deadline: time.Now().Add(time.Hour)})

	if err := m.Delete(created.ID, "other-group"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-group delete: got %v, want not found", err)
	}
	if err := m.Delete(created.ID, groupID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(created.ID, groupID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted task should be gone, got %v", err)
	}
}
