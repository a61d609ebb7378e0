package model

import "time"

// Profile is an optional 1:1 extension of an Account, at most one row per
// account. Auto-provisioned with the username as nickname on first read.
type Profile struct {
	UserID     string    `json:"user_id"`
	Nickname   string    `json:"nickname"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProfileView is the read shape of a profile joined with the owning
// account's role. Timestamps are populated only on request.
type ProfileView struct {
	Nickname   string     `json:"nickname"`
	Name       string     `json:"name"`
	Department string     `json:"department"`
	Role       string     `json:"role"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}
