package model

import "time"

const (
	RequestStatusSubmitted = "submitted"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
)

type TaskRequest struct {
	ID              string     `json:"id"`
	HouseGroupID    string     `json:"house_group_id"`
	RequestedBy     string     `json:"requested_by"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	AssignedTo      *string    `json:"assigned_to"`
	Deadline        *time.Time `json:"deadline"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	ReviewedBy      *string    `json:"reviewed_by"`
	CreatedAt       time.Time  `json:"created_at"`
}
