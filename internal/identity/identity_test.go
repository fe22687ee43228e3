package identity

import (
	"errors"
	"testing"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/database"
	"github.com/danuwirya/homechore/internal/store"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(store.NewCredentialStore(db), store.NewSessionStore(db))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := setupService(t)

	cred, err := svc.Register("Alice@Example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if cred.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased", cred.Email)
	}
	if cred.PasswordHash == "password123" {
		t.Error("password must not be stored in plain text")
	}

	sess, err := svc.Authenticate("alice@example.com", "password123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if sess.UserID != cred.UserID {
		t.Errorf("session user = %q, want %q", sess.UserID, cred.UserID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := setupService(t)

	if _, err := svc.Register("", "password123"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty email: got %v, want validation error", err)
	}
	if _, err := svc.Register("alice@example.com", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty password: got %v, want validation error", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupService(t)

	svc.Register("alice@example.com", "password123")
	_, err := svc.Register("ALICE@example.com", "different456")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := setupService(t)

	svc.Register("alice@example.com", "password123")

	if _, err := svc.Authenticate("alice@example.com", "wrong"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("wrong password: got %v, want unauthenticated", err)
	}
	if _, err := svc.Authenticate("nobody@example.com", "password123"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("unknown email: got %v, want unauthenticated", err)
	}
}

func TestResolve(t *testing.T) {
	svc := setupService(t)

	svc.Register("alice@example.com", "password123")
	sess, _ := svc.Authenticate("alice@example.com", "password123")

	got, err := svc.Resolve(sess.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("resolved session %q, want %q", got.ID, sess.ID)
	}

	if _, err := svc.Resolve(""); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("empty token: got %v, want unauthenticated", err)
	}
	if _, err := svc.Resolve("bogus"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("bogus token: got %v, want unauthenticated", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	svc := setupService(t)

	svc.Register("alice@example.com", "password123")
	sess, _ := svc.Authenticate("alice@example.com", "password123")

	rotated, err := svc.Refresh(sess.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.AccessToken == sess.AccessToken {
		t.Error("refresh should issue a new access token")
	}

	// Old session is gone
	if _, err := svc.Resolve(sess.AccessToken); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("old token should be invalid, got %v", err)
	}
	if _, err := svc.Resolve(rotated.AccessToken); err != nil {
		t.Errorf("new token should resolve: %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc := setupService(t)

	svc.Register("alice@example.com", "password123")
	sess, _ := svc.Authenticate("alice@example.com", "password123")

	if err := svc.Revoke(sess.AccessToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Resolve(sess.AccessToken); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("revoked token should be invalid, got %v", err)
	}

	// Revoking an unknown token is a no-op
	if err := svc.Revoke("bogus"); err != nil {
		t.Errorf("revoke unknown token: %v", err)
	}
}

func TestPasswordManagement(t *testing.T) {
	svc := setupService(t)

	cred, _ := svc.Register("alice@example.com", "password123")

	if err := svc.VerifyPassword(cred.UserID, "password123"); err != nil {
		t.Fatalf("verify correct password: %v", err)
	}
	if err := svc.VerifyPassword(cred.UserID, "wrong"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("wrong password: got %v, want validation error", err)
	}

	if err := svc.SetPassword(cred.UserID, "newpass456"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := svc.VerifyPassword(cred.UserID, "newpass456"); err != nil {
		t.Errorf("verify new password: %v", err)
	}
	if _, err := svc.Authenticate("alice@example.com", "password123"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("old password should no longer work, got %v", err)
	}
}

func TestDeleteIdentity(t *testing.T) {
	svc := setupService(t)

	cred, _ := svc.Register("alice@example.com", "password123")
	sess, _ := svc.Authenticate("alice@example.com", "password123")

	if err := svc.Delete(cred.UserID); err != nil {
		t.Fatalf("delete identity: %v", err)
	}

	// Email is free again and old sessions are dead
	if _, err := svc.Register("alice@example.com", "password123"); err != nil {
		t.Errorf("re-register after delete: %v", err)
	}
	if _, err := svc.Resolve(sess.AccessToken); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("session should be gone after delete, got %v", err)
	}
}
