// Package identity is the authentication gateway: it owns credentials and
// the access/refresh token pairs handed out at login. Everything else in the
// system trusts the identity it resolves from a token.
package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/model"
	"github.com/danuwirya/homechore/internal/store"
)

type Service struct {
	credentials *store.CredentialStore
	sessions    *store.SessionStore
}

func NewService(cs *store.CredentialStore, ss *store.SessionStore) *Service {
	return &Service{credentials: cs, sessions: ss}
}

// Register creates exactly one identity account for the email. The returned
// user ID is the key the directory row must be created under; if any later
// registration step fails, the caller must Delete the identity to avoid an
// orphaned account.
func (s *Service) Register(email, password string) (*model.Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", apperr.ErrValidation)
	}

	existing, err := s.credentials.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("lookup credential: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.credentials.Create(uuid.NewString(), email, string(hash))
}

// Authenticate verifies the password and issues a new session token pair.
func (s *Service) Authenticate(email, password string) (*model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	cred, err := s.credentials.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("lookup credential: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("unknown email: %w", apperr.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("password mismatch: %w", apperr.ErrUnauthenticated)
	}

	return s.sessions.Create(cred.UserID)
}

// Resolve maps a live access token to its session. Missing, unknown, and
// expired tokens all surface as ErrUnauthenticated; callers must not
// distinguish the causes.
func (s *Service) Resolve(accessToken string) (*model.Session, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("missing token: %w", apperr.ErrUnauthenticated)
	}
	sess, err := s.sessions.GetByAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("invalid or expired token: %w", apperr.ErrUnauthenticated)
	}
	return sess, nil
}

// Refresh exchanges a live refresh token for a fresh session pair, retiring
// the old session.
func (s *Service) Refresh(refreshToken string) (*model.Session, error) {
	old, err := s.sessions.GetByRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("resolve refresh token: %w", err)
	}
	if old == nil {
		return nil, fmt.Errorf("invalid or expired refresh token: %w", apperr.ErrUnauthenticated)
	}
	if err := s.sessions.Delete(old.ID); err != nil {
		return nil, err
	}
	return s.sessions.Create(old.UserID)
}

// Revoke deletes the session behind an access token. Unknown tokens are a
// no-op so logout always succeeds.
func (s *Service) Revoke(accessToken string) error {
	sess, err := s.sessions.GetByAccessToken(accessToken)
	if err != nil || sess == nil {
		return err
	}
	return s.sessions.Delete(sess.ID)
}

// VerifyPassword checks a password against the stored hash without issuing
// a session. Used by the change-password flow.
func (s *Service) VerifyPassword(userID, password string) error {
	cred, err := s.credentials.GetByUserID(userID)
	if err != nil {
		return fmt.Errorf("lookup credential: %w", err)
	}
	if cred == nil {
		return fmt.Errorf("no credential for user: %w", apperr.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("password mismatch: %w", apperr.ErrValidation)
	}
	return nil
}

// SetPassword replaces the stored hash.
func (s *Service) SetPassword(userID, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("new password is required: %w", apperr.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.credentials.SetPasswordHash(userID, string(hash))
}

// Delete removes the identity account and its sessions. This is the
// compensating action for a failed registration and the identity half of
// member deletion.
func (s *Service) Delete(userID string) error {
	if err := s.sessions.DeleteByUserID(userID); err != nil {
		return err
	}
	return s.credentials.Delete(userID)
}
