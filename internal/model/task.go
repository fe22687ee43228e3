package model

import "time"

const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
	TaskStatusVerified  = "verified"
)

type Task struct {
	ID            string    `json:"id"`
	HouseGroupID  string    `json:"house_group_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	AssignedTo    *string   `json:"assigned_to"`
	CreatedBy     string    `json:"created_by"`
	Deadline      time.Time `json:"deadline"`
	Status        string    `json:"status"`
	ProofImageURL *string   `json:"proof_image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Overdue       bool      `json:"overdue"`
}

// ComputeOverdue sets the derived Overdue flag: a pending task whose
// deadline has passed. Never persisted.
func (t *Task) ComputeOverdue(now time.Time) {
	t.Overdue = t.Status == TaskStatusPending && t.Deadline.Before(now)
}
