package model

import "time"

type Invite struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	HouseGroupID string     `json:"house_group_id"`
	CreatedBy    string     `json:"created_by"`
	Email        *string    `json:"email"`
	ExpiresAt    *time.Time `json:"expires_at"`
	UsedBy       *string    `json:"used_by"`
	Revoked      bool       `json:"revoked"`
	CreatedAt    time.Time  `json:"created_at"`
}
