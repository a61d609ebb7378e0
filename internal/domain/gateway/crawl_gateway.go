// Package gateway defines the boundary to the external crawl service.
// The service itself is not part of this system; the task lifecycle only
// issues create/status/cancel calls against it and propagates failures.
package gateway

import "context"

// CreateJobRequest carries the parameters of a new crawl job. Only URL is
// required by the crawl API.
type CreateJobRequest struct {
	URL         string
	Name        string
	Description string
	Schedule    string // cron-like expression, optional
}

// Job identifies a crawl job created on the external service.
type Job struct {
	ID  string
	URL string
}

// JobStatus is the external service's view of a running or finished job.
type JobStatus struct {
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// CrawlGateway abstracts the external crawl API so the task lifecycle can
// be exercised with a fake in tests. Implementations wrap failures in a
// gateway error kind and do not retry; retry policy belongs to callers.
type CrawlGateway interface {
	CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error)
	JobStatus(ctx context.Context, jobID string) (*JobStatus, error)
	CancelJob(ctx context.Context, jobID string) error
}
