// Package task owns the chore lifecycle (pending -> completed -> verified)
// and the member request workflow that can promote a proposal into a task.
package task

import (
	"fmt"
	"time"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/model"
	"github.com/danuwirya/homechore/internal/store"
)

type Manager struct {
	tasks *store.TaskStore
	users *store.UserStore
	now   func() time.Time
}

func NewManager(ts *store.TaskStore, us *store.UserStore) *Manager {
	return &Manager{tasks: ts, users: us, now: time.Now}
}

// CreateInput carries the admin-supplied fields for a new task. Title,
// AssignedTo, and Deadline are mandatory.
type CreateInput struct {
	Title       string
	Description *string
	AssignedTo  string
	Deadline    time.Time
}

func (m *Manager) Create(houseGroupID, creatorID string, in CreateInput) (*model.Task, error) {
	if in.Title == "" || in.AssignedTo == "" || in.Deadline.IsZero() {
		return nil, fmt.Errorf("title, assigned_to, and deadline are required: %w", apperr.ErrValidation)
	}

	assignee, err := m.users.GetByID(in.AssignedTo)
	if err != nil {
		return nil, err
	}
	if assignee == nil || assignee.HouseGroupID == nil || *assignee.HouseGroupID != houseGroupID {
		return nil, fmt.Errorf("assignee is not a member of this group: %w", apperr.ErrValidation)
	}

	t, err := m.tasks.Create(houseGroupID, in.Title, in.Description, &in.AssignedTo, creatorID, in.Deadline)
	if err != nil {
		return nil, err
	}
	t.ComputeOverdue(m.now())
	return t, nil
}

// ListOptions are the caller-supplied listing filters.
type ListOptions struct {
	Status   string
	Limit    int
	OnlyMine bool
}

// List returns a group's tasks newest first. Non-admin callers are always
// restricted to their own assignments, whatever OnlyMine says.
func (m *Manager) List(houseGroupID, callerID, callerRole string, opts ListOptions) ([]model.Task, error) {
	filter := store.ListFilter{Status: opts.Status, Limit: opts.Limit}
	if callerRole != model.RoleAdmin || opts.OnlyMine {
		filter.AssignedTo = callerID
	}

	tasks, err := m.tasks.ListByGroup(houseGroupID, filter)
	if err != nil {
		return nil, err
	}
	now := m.now()
	for i := range tasks {
		tasks[i].ComputeOverdue(now)
	}
	return tasks, nil
}

// Get returns a task, hiding tasks from other groups behind NotFound.
func (m *Manager) Get(taskID, houseGroupID string) (*model.Task, error) {
	t, err := m.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.HouseGroupID != houseGroupID {
		return nil, fmt.Errorf("task: %w", apperr.ErrNotFound)
	}
	t.ComputeOverdue(m.now())
	return t, nil
}

// AdminPatch is the full-field update an admin may apply. Nil pointers mean
// "leave unchanged"; Status accepts any of the three states.
type AdminPatch struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	AssignedTo    *string    `json:"assigned_to"`
	Deadline      *time.Time `json:"deadline"`
	Status        *string    `json:"status"`
	ProofImageURL *string    `json:"proof_image_url"`
}

func (p AdminPatch) empty() bool {
	return p.Title == nil && p.Description == nil && p.AssignedTo == nil &&
		p.Deadline == nil && p.Status == nil && p.ProofImageURL == nil
}

// MemberPatch is what a non-admin may apply: proof, and a status move to
// completed only.
type MemberPatch struct {
	Status        *string `json:"status"`
	ProofImageURL *string `json:"proof_image_url"`
}

// UpdateAdmin applies an admin's patch to a task in the caller's group.
func (m *Manager) UpdateAdmin(taskID, houseGroupID string, p AdminPatch) (*model.Task, error) {
	if p.empty() {
		return nil, fmt.Errorf("no valid fields to update: %w", apperr.ErrValidation)
	}
	if p.Status != nil && !validStatus(*p.Status) {
		return nil, fmt.Errorf("invalid status %q: %w", *p.Status, apperr.ErrValidation)
	}

	t, err := m.Get(taskID, houseGroupID)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.AssignedTo != nil {
		t.AssignedTo = p.AssignedTo
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ProofImageURL != nil {
		t.ProofImageURL = p.ProofImageURL
	}

	updated, err := m.tasks.Update(t)
	if err != nil {
		return nil, err
	}
	updated.ComputeOverdue(m.now())
	return updated, nil
}

// UpdateMember applies a member's patch. A status other than completed is
// silently dropped rather than rejected; if nothing survives the filter the
// update fails as a no-op.
func (m *Manager) UpdateMember(taskID, houseGroupID string, p MemberPatch) (*model.Task, error) {
	var status *string
	if p.Status != nil && *p.Status == model.TaskStatusCompleted {
		status = p.Status
	}

	if status == nil && p.ProofImageURL == nil {
		return nil, fmt.Errorf("no valid fields to update: %w", apperr.ErrValidation)
	}

	t, err := m.Get(taskID, houseGroupID)
	if err != nil {
		return nil, err
	}

	if status != nil {
		t.Status = *status
	}
	if p.ProofImageURL != nil {
		t.ProofImageURL = p.ProofImageURL
	}

	updated, err := m.tasks.Update(t)
	if err != nil {
		return nil, err
	}
	updated.ComputeOverdue(m.now())
	return updated, nil
}

func (m *Manager) Delete(taskID, houseGroupID string) error {
	if _, err := m.Get(taskID, houseGroupID); err != nil {
		return err
	}
	return m.tasks.Delete(taskID)
}

func validStatus(s string) bool {
	switch s {
	case model.TaskStatusPending, model.TaskStatusCompleted, model.TaskStatusVerified:
		return true
	}
	return false
}
