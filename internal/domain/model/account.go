package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusApproved AccountStatus = "approved"
	AccountStatusRejected AccountStatus = "rejected"
)

// Account is the root identity record. Status moves pending->approved or
// pending->rejected exactly once; there is no reverse transition.
type Account struct {
	ID             string        `json:"id"`
	Username       string        `json:"username"`
	HashedPassword string        `json:"-"` // Not exposed
	Status         AccountStatus `json:"status"`
	Role           string        `json:"role"`
	CreatedAt      time.Time     `json:"created_at"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy     *string       `json:"approved_by,omitempty"`
	RejectReason   *string       `json:"reject_reason,omitempty"`
}
