package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danuwirya/homechore/internal/model"
)

type TaskRequestStore struct {
	db *sql.DB
}

func NewTaskRequestStore(db *sql.DB) *TaskRequestStore {
	return &TaskRequestStore{db: db}
}

func scanTaskRequest(scanner interface{ Scan(...any) error }) (*model.TaskRequest, error) {
	var r model.TaskRequest
	var description, assignedTo, rejectionReason, reviewedBy sql.NullString
	var deadline, reviewedAt sql.NullTime

	err := scanner.Scan(
		&r.ID, &r.HouseGroupID, &r.RequestedBy, &r.Title, &description,
		&assignedTo, &deadline, &r.Status, &rejectionReason, &reviewedAt,
		&reviewedBy, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		r.Description = &description.String
	}
	if assignedTo.Valid {
		r.AssignedTo = &assignedTo.String
	}
	if deadline.Valid {
		r.Deadline = &deadline.Time
	}
	if rejectionReason.Valid {
		r.RejectionReason = &rejectionReason.String
	}
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	if reviewedBy.Valid {
		r.ReviewedBy = &reviewedBy.String
	}
	return &r, nil
}

const taskRequestCols = `id, house_group_id, requested_by, title, description, assigned_to, deadline, status, rejection_reason, reviewed_at, reviewed_by, created_at`

func (s *TaskRequestStore) Create(houseGroupID, requestedBy, title string, description, assignedTo *string, deadline *time.Time) (*model.TaskRequest, error) {
	id := uuid.NewString()

	var dl sql.NullTime
	if deadline != nil {
		dl = sql.NullTime{Time: deadline.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO task_requests (id, house_group_id, requested_by, title, description, assigned_to, deadline, status) VALUES (?, ?, ?, ?, ?, ?, ?, 'submitted')`,
		id, houseGroupID, requestedBy, title, nullStr(description), nullStr(assignedTo), dl,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task request: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskRequestStore) GetByID(id string) (*model.TaskRequest, error) {
	row := s.db.QueryRow(`SELECT `+taskRequestCols+` FROM task_requests WHERE id = ?`, id)
	r, err := scanTaskRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task request: %w", err)
	}
	return r, nil
}

func (s *TaskRequestStore) ListByGroup(houseGroupID, requestedBy, status string) ([]model.TaskRequest, error) {
	q := `SELECT ` + taskRequestCols + ` FROM task_requests WHERE house_group_id = ?`
	args := []any{houseGroupID}

	if requestedBy != "" {
		q += ` AND requested_by = ?`
		args = append(args, requestedBy)
	}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list task requests: %w", err)
	}
	defer rows.Close()

	var requests []model.TaskRequest
	for rows.Next() {
		r, err := scanTaskRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func (s *TaskRequestStore) CountPending(houseGroupID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM task_requests WHERE house_group_id = ? AND status = 'submitted'`,
		houseGroupID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}

// ReviewUpdate carries the fields a review writes onto the request row.
type ReviewUpdate struct {
	Status          string
	ReviewedBy      string
	ReviewedAt      time.Time
	RejectionReason *string
	AssignedTo      *string
	Deadline        *time.Time
}

// TaskInsert describes the task created when a review approves a request.
type TaskInsert struct {
	HouseGroupID string
	Title        string
	Description  *string
	AssignedTo   *string
	CreatedBy    string
	Deadline     time.Time
}

// ApplyReview updates the request and, when ins is non-nil, inserts the
// promoted task in the same transaction. A failed task insert therefore
// rolls the review back instead of leaving an approved request with no task.
func (s *TaskRequestStore) ApplyReview(id string, upd ReviewUpdate, ins *TaskInsert) (*model.TaskRequest, *model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := `UPDATE task_requests SET status = ?, reviewed_at = ?, reviewed_by = ?`
	args := []any{upd.Status, upd.ReviewedAt.UTC(), upd.ReviewedBy}
	if upd.RejectionReason != nil {
		q += `, rejection_reason = ?`
		args = append(args, *upd.RejectionReason)
	}
	if upd.AssignedTo != nil {
		q += `, assigned_to = ?`
		args = append(args, *upd.AssignedTo)
	}
	if upd.Deadline != nil {
		q += `, deadline = ?`
		args = append(args, upd.Deadline.UTC())
	}
	q += ` WHERE id = ?`
	args = append(args, id)

	if _, err := tx.Exec(q, args...); err != nil {
		return nil, nil, fmt.Errorf("update task request: %w", err)
	}

	var taskID string
	if ins != nil {
		taskID = uuid.NewString()
		_, err := tx.Exec(
			`INSERT INTO tasks (id, house_group_id, title, description, assigned_to, created_by, deadline, status) VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')`,
			taskID, ins.HouseGroupID, ins.Title, nullStr(ins.Description), nullStr(ins.AssignedTo), ins.CreatedBy, ins.Deadline.UTC(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("insert promoted task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	request, err := s.GetByID(id)
	if err != nil {
		return nil, nil, err
	}

	var task *model.Task
	if taskID != "" {
		row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, taskID)
		task, err = scanTask(row)
		if err != nil {
			return nil, nil, fmt.Errorf("get promoted task: %w", err)
		}
	}
	return request, task, nil
}

func (s *TaskRequestStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM task_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task request: %w", err)
	}
	return nil
}
