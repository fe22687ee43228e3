package store

import (
	"database/sql"
	"fmt"

	"github.com/danuwirya/homechore/internal/model"
)

type CredentialStore struct {
	db *sql.DB
}

func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func scanCredential(scanner interface{ Scan(...any) error }) (*model.Credential, error) {
	var c model.Credential
	err := scanner.Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const credentialCols = `user_id, email, password_hash, created_at`

func (s *CredentialStore) Create(userID, email, passwordHash string) (*model.Credential, error) {
	_, err := s.db.Exec(
		`INSERT INTO credentials (user_id, email, password_hash) VALUES (?, ?, ?)`,
		userID, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}
	return s.GetByUserID(userID)
}

func (s *CredentialStore) GetByUserID(userID string) (*model.Credential, error) {
	row := s.db.QueryRow(`SELECT `+credentialCols+` FROM credentials WHERE user_id = ?`, userID)
	c, err := scanCredential(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func (s *CredentialStore) GetByEmail(email string) (*model.Credential, error) {
	row := s.db.QueryRow(`SELECT `+credentialCols+` FROM credentials WHERE email = ?`, email)
	c, err := scanCredential(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential by email: %w", err)
	}
	return c, nil
}

func (s *CredentialStore) SetPasswordHash(userID, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE credentials SET password_hash = ? WHERE user_id = ?`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(userID string) error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
