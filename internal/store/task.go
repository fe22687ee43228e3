package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danuwirya/homechore/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var description, assignedTo, proofImageURL sql.NullString

	err := scanner.Scan(
		&t.ID, &t.HouseGroupID, &t.Title, &description, &assignedTo, &t.CreatedBy,
		&t.Deadline, &t.Status, &proofImageURL, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		t.Description = &description.String
	}
	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.String
	}
	if proofImageURL.Valid {
		t.ProofImageURL = &proofImageURL.String
	}
	return &t, nil
}

const taskCols = `id, house_group_id, title, description, assigned_to, created_by, deadline, status, proof_image_url, created_at, updated_at`

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (s *TaskStore) Create(houseGroupID, title string, description *string, assignedTo *string, createdBy string, deadline time.Time) (*model.Task, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, house_group_id, title, description, assigned_to, created_by, deadline, status) VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')`,
		id, houseGroupID, title, nullStr(description), nullStr(assignedTo), createdBy, deadline.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id string) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListFilter narrows a group's task listing. AssignedTo restricts to one
// assignee, Status to one status, Limit caps the result count.
type ListFilter struct {
	AssignedTo string
	Status     string
	Limit      int
}

func (s *TaskStore) ListByGroup(houseGroupID string, filter ListFilter) ([]model.Task, error) {
	q := `SELECT ` + taskCols + ` FROM tasks WHERE house_group_id = ?`
	args := []any{houseGroupID}

	if filter.AssignedTo != "" {
		q += ` AND assigned_to = ?`
		args = append(args, filter.AssignedTo)
	}
	if filter.Status != "" {
		q += ` AND status = ?`
		args = append(args, filter.Status)
	}
	q += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update persists every mutable column. Callers merge the authorized patch
// into the loaded task first, so the write is a plain overwrite.
func (s *TaskStore) Update(t *model.Task) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, assigned_to = ?, deadline = ?, status = ?, proof_image_url = ? WHERE id = ?`,
		t.Title, nullStr(t.Description), nullStr(t.AssignedTo), t.Deadline.UTC(), t.Status, nullStr(t.ProofImageURL), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(t.ID)
}

func (s *TaskStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// StatusCounts tallies a group's tasks by status, optionally restricted to
// one assignee. Used by the dashboard stats endpoint.
func (s *TaskStore) StatusCounts(houseGroupID, assignedTo string) (map[string]int, error) {
	q := `SELECT status, COUNT(*) FROM tasks WHERE house_group_id = ?`
	args := []any{houseGroupID}
	if assignedTo != "" {
		q += ` AND assigned_to = ?`
		args = append(args, assignedTo)
	}
	q += ` GROUP BY status`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountOverdue counts pending tasks past their deadline.
func (s *TaskStore) CountOverdue(houseGroupID, assignedTo string, now time.Time) (int, error) {
	q := `SELECT COUNT(*) FROM tasks WHERE house_group_id = ? AND status = 'pending' AND deadline < ?`
	args := []any{houseGroupID, now.UTC()}
	if assignedTo != "" {
		q += ` AND assigned_to = ?`
		args = append(args, assignedTo)
	}

	var count int
	if err := s.db.QueryRow(q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count overdue: %w", err)
	}
	return count, nil
}

// AssigneeStatusCounts tallies tasks assigned to one user by status,
// regardless of group. Used by the per-user stats endpoint.
func (s *TaskStore) AssigneeStatusCounts(userID string) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT status, COUNT(*) FROM tasks WHERE assigned_to = ? GROUP BY status`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("count tasks by assignee: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
