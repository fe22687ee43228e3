// Package policy is the role-based access table consulted before every
// mutating operation. There are exactly two roles; admins may do everything,
// members only the operations listed for them.
package policy

import (
	"fmt"

	"github.com/danuwirya/homechore/internal/apperr"
)

// Operation names a gated action.
type Operation string

const (
	OpCreateTask     Operation = "task.create"
	OpUpdateTask     Operation = "task.update"
	OpDeleteTask     Operation = "task.delete"
	OpSubmitRequest  Operation = "request.submit"
	OpReviewRequest  Operation = "request.review"
	OpDeleteRequest  Operation = "request.delete"
	OpIssueInvite    Operation = "invite.issue"
	OpListInvites    Operation = "invite.list"
	OpChangeRole     Operation = "member.change_role"
	OpRemoveMember   Operation = "member.remove"
	OpRegenerateCode Operation = "group.regenerate_code"
)

// memberAllowed lists the operations a non-admin may perform. Everything
// else requires the admin role.
var memberAllowed = map[Operation]bool{
	OpSubmitRequest: true,
	OpUpdateTask:    true, // field-level restrictions applied by the task manager
}

// Authorize returns nil if the role may perform op, or an ErrForbidden
// wrapped with the operation name.
func Authorize(op Operation, role string) error {
	if role == "admin" {
		return nil
	}
	if memberAllowed[op] {
		return nil
	}
	return fmt.Errorf("%s requires admin: %w", op, apperr.ErrForbidden)
}
