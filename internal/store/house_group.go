package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danuwirya/homechore/internal/model"
)

type HouseGroupStore struct {
	db *sql.DB
}

func NewHouseGroupStore(db *sql.DB) *HouseGroupStore {
	return &HouseGroupStore{db: db}
}

func scanHouseGroup(scanner interface{ Scan(...any) error }) (*model.HouseGroup, error) {
	var g model.HouseGroup
	err := scanner.Scan(&g.ID, &g.Name, &g.InviteCode, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const houseGroupCols = `id, name, invite_code, created_by, created_at, updated_at`

func (s *HouseGroupStore) Create(name, inviteCode, createdBy string) (*model.HouseGroup, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO house_groups (id, name, invite_code, created_by) VALUES (?, ?, ?, ?)`,
		id, name, inviteCode, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert house group: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseGroupStore) GetByID(id string) (*model.HouseGroup, error) {
	row := s.db.QueryRow(`SELECT `+houseGroupCols+` FROM house_groups WHERE id = ?`, id)
	g, err := scanHouseGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house group: %w", err)
	}
	return g, nil
}

// GetByInviteCode matches the group's own invite code, case-insensitively.
func (s *HouseGroupStore) GetByInviteCode(code string) (*model.HouseGroup, error) {
	row := s.db.QueryRow(
		`SELECT `+houseGroupCols+` FROM house_groups WHERE invite_code = ?`,
		strings.ToUpper(code),
	)
	g, err := scanHouseGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house group by code: %w", err)
	}
	return g, nil
}

// SetInviteCode replaces the group's invite code. The UNIQUE index makes the
// swap atomic: the old code stops matching the moment the new one lands.
func (s *HouseGroupStore) SetInviteCode(id, code string) (*model.HouseGroup, error) {
	res, err := s.db.Exec(`UPDATE house_groups SET invite_code = ? WHERE id = ?`, code, id)
	if err != nil {
		return nil, fmt.Errorf("set invite code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

func (s *HouseGroupStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM house_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete house group: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure, used
// by callers that retry invite-code generation on collision.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
