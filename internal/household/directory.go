// Package household manages house groups and their membership: creation,
// joining by invite code, roles, and the last-admin invariant.
package household

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/invite"
	"github.com/danuwirya/homechore/internal/model"
	"github.com/danuwirya/homechore/internal/store"
)

// codeRetries bounds invite-code regeneration attempts on UNIQUE collision.
const codeRetries = 5

type Directory struct {
	groups *store.HouseGroupStore
	users  *store.UserStore
	issuer *invite.Issuer
}

func NewDirectory(gs *store.HouseGroupStore, us *store.UserStore, issuer *invite.Issuer) *Directory {
	return &Directory{groups: gs, users: us, issuer: issuer}
}

// CreateGroup creates a group with a fresh invite code. The owner is not
// added here; registration inserts the user row with role=admin afterwards.
func (d *Directory) CreateGroup(name, ownerID string) (*model.HouseGroup, error) {
	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", apperr.ErrValidation)
	}

	var lastErr error
	for range codeRetries {
		code, err := invite.GenerateCode()
		if err != nil {
			return nil, err
		}
		group, err := d.groups.Create(name, code, ownerID)
		if err == nil {
			return group, nil
		}
		if !store.IsUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("invite code collision persisted: %w", lastErr)
}

// ResolveJoinCode validates a join code of either kind and returns the
// target group plus the validation (so the caller can consume a standalone
// invite after the join lands).
func (d *Directory) ResolveJoinCode(code string) (*model.HouseGroup, *invite.Validation, error) {
	v, err := d.issuer.Validate(code)
	if err != nil {
		return nil, nil, err
	}
	if !v.Valid {
		return nil, nil, fmt.Errorf("invite code %s: %w", v.Reason, apperr.ErrValidation)
	}
	group, err := d.groups.GetByID(v.HouseGroupID)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, fmt.Errorf("invite points at missing group: %w", apperr.ErrNotFound)
	}
	return group, v, nil
}

// JoinGroup adds a member to the group resolved by ResolveJoinCode. When the
// code was a standalone invite, the member insert and the used_by stamp share
// one transaction, so a failed consume leaves no orphaned member.
func (d *Directory) JoinGroup(houseGroupID, userID, fullName, email string, v *invite.Validation) (*model.User, error) {
	inviteID := ""
	if v != nil && v.Invite != nil {
		inviteID = v.Invite.ID
	}
	user, err := d.users.CreateMember(userID, fullName, email, houseGroupID, model.RoleMember, inviteID)
	if errors.Is(err, store.ErrInviteConsumed) {
		return nil, fmt.Errorf("invite code used: %w", apperr.ErrValidation)
	}
	return user, err
}

// GetGroup returns the group with its member count.
func (d *Directory) GetGroup(houseGroupID string) (*model.GroupSummary, error) {
	group, err := d.groups.GetByID(houseGroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("house group: %w", apperr.ErrNotFound)
	}
	count, err := d.users.CountByGroup(houseGroupID)
	if err != nil {
		return nil, err
	}
	return &model.GroupSummary{HouseGroup: *group, MemberCount: count}, nil
}

// RegenerateInviteCode swaps the group's legacy code for a fresh one,
// invalidating the old code the moment the new one lands.
func (d *Directory) RegenerateInviteCode(houseGroupID string) (*model.HouseGroup, error) {
	var lastErr error
	for range codeRetries {
		code, err := invite.GenerateCode()
		if err != nil {
			return nil, err
		}
		group, err := d.groups.SetInviteCode(houseGroupID, code)
		if err == nil {
			if group == nil {
				return nil, fmt.Errorf("house group: %w", apperr.ErrNotFound)
			}
			return group, nil
		}
		if !store.IsUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("invite code collision persisted: %w", lastErr)
}

func (d *Directory) ListMembers(houseGroupID string) ([]model.User, error) {
	return d.users.ListByGroup(houseGroupID)
}

func (d *Directory) CountAdmins(houseGroupID string) (int, error) {
	return d.users.CountAdmins(houseGroupID)
}

// ChangeRole promotes or demotes a member. Self-changes are rejected, as is
// demoting the group's only admin.
func (d *Directory) ChangeRole(houseGroupID, callerID, targetID, action string) (*model.User, error) {
	if callerID == targetID {
		return nil, fmt.Errorf("cannot change your own role: %w", apperr.ErrValidation)
	}

	target, err := d.users.GetByID(targetID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.HouseGroupID == nil || *target.HouseGroupID != houseGroupID {
		return nil, fmt.Errorf("member: %w", apperr.ErrNotFound)
	}

	var newRole string
	switch action {
	case "promote":
		if target.Role == model.RoleAdmin {
			return nil, fmt.Errorf("user is already an admin: %w", apperr.ErrValidation)
		}
		newRole = model.RoleAdmin
	case "demote":
		if target.Role == model.RoleMember {
			return nil, fmt.Errorf("user is already a member: %w", apperr.ErrValidation)
		}
		newRole = model.RoleMember
	default:
		return nil, fmt.Errorf("action must be promote or demote: %w", apperr.ErrValidation)
	}

	updated, err := d.users.SetRole(houseGroupID, targetID, newRole)
	if errors.Is(err, store.ErrLastAdmin) {
		return nil, fmt.Errorf("cannot demote the last admin: %w", apperr.ErrConflict)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member: %w", apperr.ErrNotFound)
	}
	return updated, err
}

// RemoveMember deletes a member from the group. Self-removal goes through
// LeaveGroup instead; removing the sole admin is refused.
func (d *Directory) RemoveMember(houseGroupID, callerID, targetID string) error {
	if callerID == targetID {
		return fmt.Errorf("cannot remove yourself: %w", apperr.ErrValidation)
	}

	target, err := d.users.GetByID(targetID)
	if err != nil {
		return err
	}
	if target == nil || target.HouseGroupID == nil || *target.HouseGroupID != houseGroupID {
		return fmt.Errorf("member: %w", apperr.ErrNotFound)
	}

	err = d.users.RemoveFromGroup(houseGroupID, targetID)
	if errors.Is(err, store.ErrLastAdmin) {
		return fmt.Errorf("cannot delete the last admin: %w", apperr.ErrConflict)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("member: %w", apperr.ErrNotFound)
	}
	return err
}

// LeaveGroup detaches the caller from their group, refusing if they are its
// only admin.
func (d *Directory) LeaveGroup(houseGroupID, userID string) error {
	err := d.users.LeaveGroup(houseGroupID, userID)
	if errors.Is(err, store.ErrLastAdmin) {
		return fmt.Errorf("cannot leave as the last admin: %w", apperr.ErrConflict)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("member: %w", apperr.ErrNotFound)
	}
	return err
}
