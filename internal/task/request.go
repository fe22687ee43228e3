package task

import (
	"fmt"
	"time"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/model"
	"github.com/danuwirya/homechore/internal/store"
)

// approvalDefaultDeadline is applied when neither the reviewer nor the
// requester proposed a deadline.
const approvalDefaultDeadline = 7 * 24 * time.Hour

type Workflow struct {
	requests *store.TaskRequestStore
	now      func() time.Time
}

func NewWorkflow(rs *store.TaskRequestStore) *Workflow {
	return &Workflow{requests: rs, now: time.Now}
}

// SubmitInput is a member's task proposal. Only the title is mandatory;
// assignee and deadline are suggestions the reviewing admin may override.
type SubmitInput struct {
	Title       string
	Description *string
	AssignedTo  *string
	Deadline    *time.Time
}

func (w *Workflow) Submit(houseGroupID, requesterID string, in SubmitInput) (*model.TaskRequest, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title is required: %w", apperr.ErrValidation)
	}
	return w.requests.Create(houseGroupID, requesterID, in.Title, in.Description, in.AssignedTo, in.Deadline)
}

// List returns a group's requests newest first. Admins see everything,
// members only their own submissions.
func (w *Workflow) List(houseGroupID, callerID, callerRole, statusFilter string) ([]model.TaskRequest, error) {
	requestedBy := ""
	if callerRole != model.RoleAdmin {
		requestedBy = callerID
	}
	return w.requests.ListByGroup(houseGroupID, requestedBy, statusFilter)
}

// Decision is an admin's verdict on a request.
type Decision struct {
	Status          string
	RejectionReason *string
	AssignedTo      *string
	Deadline        *time.Time
}

// ReviewResult pairs the updated request with the task created on first
// approval (nil otherwise).
type ReviewResult struct {
	Request *model.TaskRequest `json:"request"`
	Task    *model.Task        `json:"task"`
}

// Review stamps reviewer metadata onto the request and, when the decision
// approves a not-yet-approved request, promotes it into a pending task.
// The update and the promotion share one transaction, so a failed insert
// cannot strand an approved request without its task. Re-approving an
// already approved request refreshes reviewer metadata but never creates
// a second task.
func (w *Workflow) Review(requestID, houseGroupID, reviewerID string, d Decision) (*ReviewResult, error) {
	switch d.Status {
	case model.RequestStatusSubmitted, model.RequestStatusApproved, model.RequestStatusRejected:
	default:
		return nil, fmt.Errorf("invalid status %q: %w", d.Status, apperr.ErrValidation)
	}

	existing, err := w.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.HouseGroupID != houseGroupID {
		return nil, fmt.Errorf("task request: %w", apperr.ErrNotFound)
	}

	upd := store.ReviewUpdate{
		Status:          d.Status,
		ReviewedBy:      reviewerID,
		ReviewedAt:      w.now(),
		RejectionReason: d.RejectionReason,
		AssignedTo:      d.AssignedTo,
		Deadline:        d.Deadline,
	}

	var ins *store.TaskInsert
	if d.Status == model.RequestStatusApproved && existing.Status != model.RequestStatusApproved {
		assignedTo := d.AssignedTo
		if assignedTo == nil {
			assignedTo = existing.AssignedTo
		}
		deadline := w.now().Add(approvalDefaultDeadline)
		if d.Deadline != nil {
			deadline = *d.Deadline
		} else if existing.Deadline != nil {
			deadline = *existing.Deadline
		}

		ins = &store.TaskInsert{
			HouseGroupID: existing.HouseGroupID,
			Title:        existing.Title,
			Description:  existing.Description,
			AssignedTo:   assignedTo,
			CreatedBy:    reviewerID,
			Deadline:     deadline,
		}
	}

	request, created, err := w.requests.ApplyReview(requestID, upd, ins)
	if err != nil {
		return nil, err
	}
	if created != nil {
		created.ComputeOverdue(w.now())
	}
	return &ReviewResult{Request: request, Task: created}, nil
}

func (w *Workflow) Delete(requestID, houseGroupID string) error {
	existing, err := w.requests.GetByID(requestID)
	if err != nil {
		return err
	}
	if existing == nil || existing.HouseGroupID != houseGroupID {
		return fmt.Errorf("task request: %w", apperr.ErrNotFound)
	}
	return w.requests.Delete(requestID)
}
