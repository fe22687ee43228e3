package model

import "time"

type HouseGroup struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GroupSummary is a HouseGroup with its member count, as returned by the
// house-group endpoints.
type GroupSummary struct {
	HouseGroup
	MemberCount int `json:"member_count"`
}
