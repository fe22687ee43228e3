package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danuwirya/homechore/internal/model"
)

type InviteStore struct {
	db *sql.DB
}

func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{db: db}
}

func scanInvite(scanner interface{ Scan(...any) error }) (*model.Invite, error) {
	var inv model.Invite
	var email, usedBy sql.NullString
	var expiresAt sql.NullTime

	err := scanner.Scan(
		&inv.ID, &inv.Code, &inv.HouseGroupID, &inv.CreatedBy, &email,
		&expiresAt, &usedBy, &inv.Revoked, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		inv.Email = &email.String
	}
	if expiresAt.Valid {
		inv.ExpiresAt = &expiresAt.Time
	}
	if usedBy.Valid {
		inv.UsedBy = &usedBy.String
	}
	return &inv, nil
}

const inviteCols = `id, code, house_group_id, created_by, email, expires_at, used_by, revoked, created_at`

func (s *InviteStore) Create(code, houseGroupID, createdBy string, email *string, expiresAt *time.Time) (*model.Invite, error) {
	id := uuid.NewString()

	var e sql.NullString
	if email != nil {
		e = sql.NullString{String: *email, Valid: true}
	}
	var exp sql.NullTime
	if expiresAt != nil {
		exp = sql.NullTime{Time: expiresAt.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO invites (id, code, house_group_id, created_by, email, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, strings.ToUpper(code), houseGroupID, createdBy, e, exp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+inviteCols+` FROM invites WHERE id = ?`, id)
	return scanInvite(row)
}

func (s *InviteStore) GetByCode(code string) (*model.Invite, error) {
	row := s.db.QueryRow(
		`SELECT `+inviteCols+` FROM invites WHERE code = ?`,
		strings.ToUpper(code),
	)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite by code: %w", err)
	}
	return inv, nil
}

func (s *InviteStore) ListByGroup(houseGroupID string) ([]model.Invite, error) {
	rows, err := s.db.Query(
		`SELECT `+inviteCols+` FROM invites WHERE house_group_id = ? ORDER BY created_at DESC`,
		houseGroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var invites []model.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

// MarkUsed stamps the consuming user on an invite. Only an unused, unrevoked
// invite can be consumed; the row is kept for audit either way.
func (s *InviteStore) MarkUsed(id, userID string) error {
	res, err := s.db.Exec(
		`UPDATE invites SET used_by = ? WHERE id = ? AND used_by IS NULL AND revoked = 0`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("mark invite used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("invite already consumed or revoked")
	}
	return nil
}

func (s *InviteStore) Revoke(id string) error {
	_, err := s.db.Exec(`UPDATE invites SET revoked = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	return nil
}
