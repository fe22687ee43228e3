package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/danuwirya/homechore/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var avatarURL, houseGroupID sql.NullString
	err := scanner.Scan(
		&u.ID, &u.FullName, &u.Email, &avatarURL, &houseGroupID, &u.Role,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if avatarURL.Valid {
		u.AvatarURL = &avatarURL.String
	}
	if houseGroupID.Valid {
		u.HouseGroupID = &houseGroupID.String
	}
	return &u, nil
}

const userCols = `id, full_name, email, avatar_url, house_group_id, role, created_at, updated_at`

func (s *UserStore) Create(id, fullName, email, houseGroupID, role string) (*model.User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	var group sql.NullString
	if houseGroupID != "" {
		group = sql.NullString{String: houseGroupID, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO users (id, full_name, email, house_group_id, role) VALUES (?, ?, ?, ?, ?)`,
		id, fullName, email, group, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

// CreateMember inserts a member row and, when inviteID is set, stamps the
// invite's used_by in the same transaction. A consumed invite therefore
// always has its member row, and a lost race on a single-use invite rolls
// the insert back.
func (s *UserStore) CreateMember(id, fullName, email, houseGroupID, role, inviteID string) (*model.User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO users (id, full_name, email, house_group_id, role) VALUES (?, ?, ?, ?, ?)`,
		id, fullName, email, houseGroupID, role,
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if inviteID != "" {
		res, err := tx.Exec(
			`UPDATE invites SET used_by = ? WHERE id = ? AND used_by IS NULL AND revoked = 0`,
			id, inviteID,
		)
		if err != nil {
			return nil, fmt.Errorf("mark invite used: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrInviteConsumed
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateProfile sets only the provided fields; a nil pointer leaves the
// column untouched.
func (s *UserStore) UpdateProfile(id string, fullName, avatarURL *string) (*model.User, error) {
	if fullName != nil {
		if _, err := s.db.Exec(`UPDATE users SET full_name = ? WHERE id = ?`, *fullName, id); err != nil {
			return nil, fmt.Errorf("update full_name: %w", err)
		}
	}
	if avatarURL != nil {
		if _, err := s.db.Exec(`UPDATE users SET avatar_url = ? WHERE id = ?`, *avatarURL, id); err != nil {
			return nil, fmt.Errorf("update avatar_url: %w", err)
		}
	}
	return s.GetByID(id)
}

func (s *UserStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UserStore) ListByGroup(houseGroupID string) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE house_group_id = ? ORDER BY created_at ASC`,
		houseGroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list users by group: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) CountByGroup(houseGroupID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE house_group_id = ?`, houseGroupID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

func (s *UserStore) CountAdmins(houseGroupID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE house_group_id = ? AND role = 'admin'`, houseGroupID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// SetRole changes a member's role. When demoting, the write happens in a
// transaction that re-checks the admin count so the group can never lose
// its last admin to a concurrent demote.
func (s *UserStore) SetRole(houseGroupID, userID, role string) (*model.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if role == model.RoleMember {
		var admins int
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM users WHERE house_group_id = ? AND role = 'admin'`, houseGroupID,
		).Scan(&admins)
		if err != nil {
			return nil, fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return nil, ErrLastAdmin
		}
	}

	res, err := tx.Exec(
		`UPDATE users SET role = ? WHERE id = ? AND house_group_id = ?`,
		role, userID, houseGroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(userID)
}

// RemoveFromGroup deletes a member row inside a transaction that guards the
// last-admin invariant.
func (s *UserStore) RemoveFromGroup(houseGroupID, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var role string
	err = tx.QueryRow(
		`SELECT role FROM users WHERE id = ? AND house_group_id = ?`, userID, houseGroupID,
	).Scan(&role)
	if err != nil {
		return err
	}

	if role == model.RoleAdmin {
		var admins int
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM users WHERE house_group_id = ? AND role = 'admin'`, houseGroupID,
		).Scan(&admins)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if _, err := tx.Exec(`DELETE FROM users WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return tx.Commit()
}

// LeaveGroup clears the user's group membership with the same last-admin
// guard as RemoveFromGroup.
func (s *UserStore) LeaveGroup(houseGroupID, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var role string
	err = tx.QueryRow(
		`SELECT role FROM users WHERE id = ? AND house_group_id = ?`, userID, houseGroupID,
	).Scan(&role)
	if err != nil {
		return err
	}

	if role == model.RoleAdmin {
		var admins int
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM users WHERE house_group_id = ? AND role = 'admin'`, houseGroupID,
		).Scan(&admins)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if _, err := tx.Exec(
		`UPDATE users SET house_group_id = NULL, role = 'member' WHERE id = ?`, userID,
	); err != nil {
		return fmt.Errorf("clear membership: %w", err)
	}
	return tx.Commit()
}
