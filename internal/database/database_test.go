package database

import "testing"

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, table := range []string{
		"house_groups", "users", "credentials", "sessions", "invites", "tasks", "task_requests",
	} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// The updated_at triggers span multiple statements in the migration and
	// must survive the split into individual statements.
	for _, trigger := range []string{
		"users_updated_at", "house_groups_updated_at", "tasks_updated_at",
	} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'trigger' AND name = ?`, trigger,
		).Scan(&name)
		if err != nil {
			t.Errorf("trigger %s missing: %v", trigger, err)
		}
	}
}

func TestUpdatedAtTrigger(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(
		`INSERT INTO house_groups (id, name, invite_code, created_by, created_at, updated_at)
		 VALUES ('g1', 'Old Name', 'AAAA1111', 'founder', datetime('now', '-1 hour'), datetime('now', '-1 hour'))`,
	); err != nil {
		t.Fatalf("insert group: %v", err)
	}

	if _, err := db.Exec(`UPDATE house_groups SET name = 'New Name' WHERE id = 'g1'`); err != nil {
		t.Fatalf("update group: %v", err)
	}

	var stale bool
	err = db.QueryRow(
		`SELECT updated_at <= datetime('now', '-30 minutes') FROM house_groups WHERE id = 'g1'`,
	).Scan(&stale)
	if err != nil {
		t.Fatalf("read updated_at: %v", err)
	}
	if stale {
		t.Error("updated_at was not refreshed by the trigger")
	}
}
