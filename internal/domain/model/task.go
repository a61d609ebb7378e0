package model

import "time"

type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusApproved TaskStatus = "approved"
	TaskStatusRejected TaskStatus = "rejected"
)

// Task is a crawl request. Invariants: fc_task_id is set iff the task is
// approved and the external crawl job was created; reviewer_id is set iff
// status is no longer pending. Only pending or rejected tasks may be edited.
type Task struct {
	ID          string     `json:"id"`
	ApplicantID string     `json:"applicant_id"`
	ReviewerID  *string    `json:"reviewer_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	SiteURL     string     `json:"site_url"`
	Schedule    *string    `json:"schedule,omitempty"` // cron-like expression
	Status      TaskStatus `json:"status"`
	FCTaskID    *string    `json:"fc_task_id,omitempty"` // external crawl job id

	ApplicantName *string `json:"applicant_name,omitempty"` // For display
	ReviewerName  *string `json:"reviewer_name,omitempty"`  // For display
}

// TaskFilter is applied conjunctively. UserID matches tasks where the
// account is either applicant or reviewer; date bounds are inclusive on
// created_at.
type TaskFilter struct {
	UserID    string
	Status    TaskStatus
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
}

// TaskUpdate carries the optional fields of a partial task edit. Nil
// means "leave unchanged". Exactly the provided fields end up in the
// UPDATE statement.
type TaskUpdate struct {
	SiteURL     *string `json:"url,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Schedule    *string `json:"schedule,omitempty"`
}

// Empty reports whether the edit carries no fields at all.
func (u TaskUpdate) Empty() bool {
	return u.SiteURL == nil && u.Name == nil && u.Description == nil && u.Schedule == nil
}

// TaskPage is an offset-paginated listing, newest first.
type TaskPage struct {
	Total       int    `json:"total"`
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	Tasks       []Task `json:"tasks"`
}
