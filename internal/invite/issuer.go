// Package invite issues and validates join codes. Two kinds exist: the
// standalone Invite record (single-use, optionally targeted and expiring)
// and the legacy per-group code on house_groups, which stays valid until
// regenerated.
package invite

import (
	"fmt"
	"strings"
	"time"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/model"
	"github.com/danuwirya/homechore/internal/store"
)

type Issuer struct {
	invites *store.InviteStore
	groups  *store.HouseGroupStore
}

func NewIssuer(is *store.InviteStore, gs *store.HouseGroupStore) *Issuer {
	return &Issuer{invites: is, groups: gs}
}

// Issue creates a single-use invite for the group. expiresInDays of zero
// means the invite never expires.
func (i *Issuer) Issue(houseGroupID, issuerID string, email *string, expiresInDays int) (*model.Invite, error) {
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if expiresInDays > 0 {
		t := time.Now().UTC().Add(time.Duration(expiresInDays) * 24 * time.Hour)
		expiresAt = &t
	}

	inv, err := i.invites.Create(code, houseGroupID, issuerID, email, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("issue invite: %w", err)
	}
	return inv, nil
}

// Validation is the outcome of checking a code. When Valid, HouseGroupID
// names the group the code joins and GroupInviteCode carries the group's
// current legacy code so a registration flow can use either interchangeably.
// Invite is set only when a standalone invite matched.
type Validation struct {
	Valid           bool
	Reason          string
	HouseGroupID    string
	GroupInviteCode string
	Invite          *model.Invite
}

// Reasons for an invalid code, first match wins:
// revoked > used > expired > not_found.
const (
	ReasonRevoked  = "revoked"
	ReasonUsed     = "used"
	ReasonExpired  = "expired"
	ReasonNotFound = "not_found"
)

// Validate checks a code against the invites table first, then falls back
// to the legacy group code.
func (i *Issuer) Validate(code string) (*Validation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("code is required: %w", apperr.ErrValidation)
	}

	inv, err := i.invites.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if inv != nil {
		switch {
		case inv.Revoked:
			return &Validation{Reason: ReasonRevoked}, nil
		case inv.UsedBy != nil:
			return &Validation{Reason: ReasonUsed}, nil
		case inv.ExpiresAt != nil && inv.ExpiresAt.Before(time.Now()):
			return &Validation{Reason: ReasonExpired}, nil
		}

		group, err := i.groups.GetByID(inv.HouseGroupID)
		if err != nil {
			return nil, err
		}
		v := &Validation{Valid: true, HouseGroupID: inv.HouseGroupID, Invite: inv}
		if group != nil {
			v.GroupInviteCode = group.InviteCode
		}
		return v, nil
	}

	group, err := i.groups.GetByInviteCode(code)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return &Validation{Reason: ReasonNotFound}, nil
	}
	return &Validation{
		Valid:           true,
		HouseGroupID:    group.ID,
		GroupInviteCode: group.InviteCode,
	}, nil
}

// ListActive returns all of a group's invites, newest first. Consumed and
// revoked rows are included for audit.
func (i *Issuer) ListActive(houseGroupID string) ([]model.Invite, error) {
	return i.invites.ListByGroup(houseGroupID)
}
