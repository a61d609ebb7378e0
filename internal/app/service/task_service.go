package service

import (
	"context"
	"database/sql"
	"time"

	"fcmanager/internal/common"
	"fcmanager/internal/domain/gateway"
	"fcmanager/internal/domain/model"
	"fcmanager/internal/domain/repository"
	"fcmanager/internal/platform/logging"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// TaskService owns the task review state machine: pending -> approved or
// pending -> rejected, both terminal. Approval and external crawl job
// creation succeed or fail as one unit.
type TaskService struct {
	taskRepo    repository.TaskRepository
	accountRepo repository.AccountRepository
	crawler     gateway.CrawlGateway
	db          *sql.DB
}

func NewTaskService(
	taskRepo repository.TaskRepository,
	accountRepo repository.AccountRepository,
	crawler gateway.CrawlGateway,
	db *sql.DB,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		accountRepo: accountRepo,
		crawler:     crawler,
		db:          db,
	}
}

type CreateTaskRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	SiteURL     string  `json:"site_url"`
	Schedule    *string `json:"schedule,omitempty"`
}

// Create inserts a new crawl task. An admin's own task skips review: it is
// stored approved with the admin as reviewer, and the crawl job is created
// up front — a gateway failure then means no row at all.
func (s *TaskService) Create(ctx context.Context, applicantID, requesterRole string, req CreateTaskRequest) (*model.Task, error) {
	if req.Name == "" || req.Category == "" || req.SiteURL == "" {
		return nil, common.Errorf("name, category and site_url are required: %w", common.ErrBadRequest)
	}

	task := &model.Task{
		ID:          uuid.NewString(),
		ApplicantID: applicantID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		SiteURL:     req.SiteURL,
		Schedule:    req.Schedule,
		Status:      model.TaskStatusPending,
	}

	if requesterRole == model.RoleAdmin {
		job, err := s.createCrawlJob(ctx, task)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		task.Status = model.TaskStatusApproved
		task.ReviewerID = &applicantID
		task.ApprovedAt = &now
		task.FCTaskID = &job.ID
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	logging.L.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("applicant_id", applicantID),
		zap.String("status", string(task.Status)))
	return task, nil
}

// Modify applies a partial edit. Only pending or rejected tasks may be
// edited; the guard sits in the UPDATE's WHERE clause and edits never
// reset status.
func (s *TaskService) Modify(ctx context.Context, taskID string, update model.TaskUpdate) (string, error) {
	if update.Empty() {
		return "nothing to update", nil
	}

	rows, err := s.taskRepo.UpdateFields(ctx, taskID, update)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		if _, err := s.taskRepo.GetStatus(ctx, taskID); err != nil {
			return "", err // common.ErrNotFound
		}
		return "", common.Errorf("only pending or rejected tasks can be modified: %w", common.ErrInvalidState)
	}
	return "task updated", nil
}

// Approve reviews a pending task. On approval the crawl job is created
// before the status-changing write commits, inside the same transaction
// holding the row lock: a gateway failure rolls everything back and the
// task stays pending with fc_task_id unset.
func (s *TaskService) Approve(ctx context.Context, taskID, adminID string, isApproved bool) (string, error) {
	role, err := s.accountRepo.GetRole(ctx, adminID)
	if err != nil {
		return "", err
	}
	if role != model.RoleAdmin {
		return "", common.Errorf("only admins can review tasks: %w", common.ErrForbidden)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	task, err := s.taskRepo.FindByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return "", err
	}
	if task.Status != model.TaskStatusPending {
		return "", common.Errorf("task has already been reviewed: %w", common.ErrInvalidState)
	}

	status := model.TaskStatusRejected
	var fcTaskID *string
	if isApproved {
		job, err := s.createCrawlJob(ctx, task)
		if err != nil {
			return "", err // rollback leaves the task pending
		}
		status = model.TaskStatusApproved
		fcTaskID = &job.ID
	}

	if err := s.taskRepo.SetReviewed(ctx, tx, taskID, status, adminID, fcTaskID); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", common.Errorf("failed to commit transaction: %w", err)
	}

	logging.L.Info("task reviewed",
		zap.String("task_id", taskID),
		zap.String("admin_id", adminID),
		zap.String("status", string(status)))
	if isApproved {
		return "task approved and crawl started", nil
	}
	return "task rejected", nil
}

func (s *TaskService) createCrawlJob(ctx context.Context, task *model.Task) (*gateway.Job, error) {
	req := gateway.CreateJobRequest{
		URL:         task.SiteURL,
		Name:        slug.Make(task.Name),
		Description: task.Description,
	}
	if task.Schedule != nil {
		req.Schedule = *task.Schedule
	}
	job, err := s.crawler.CreateJob(ctx, req)
	if err != nil {
		return nil, common.Errorf("crawl job creation failed: %w", err)
	}
	return job, nil
}

// List returns one page of tasks matching the filter, newest first. The
// total is computed over the same predicate as the page.
func (s *TaskService) List(ctx context.Context, filter model.TaskFilter, page, pageSize int) (*model.TaskPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	tasks, total, err := s.taskRepo.List(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, err
	}

	return &model.TaskPage{
		Total:       total,
		TotalPages:  (total + pageSize - 1) / pageSize,
		CurrentPage: page,
		Tasks:       tasks,
	}, nil
}

// Delete removes a task unconditionally, regardless of status.
func (s *TaskService) Delete(ctx context.Context, taskID string) (string, error) {
	rows, err := s.taskRepo.Delete(ctx, taskID)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		return "", common.Errorf("task %s: %w", taskID, common.ErrNotFound)
	}
	return "task deleted", nil
}

// CrawlStatus asks the external service for the state of a crawl job.
func (s *TaskService) CrawlStatus(ctx context.Context, fcTaskID string) (*gateway.JobStatus, error) {
	status, err := s.crawler.JobStatus(ctx, fcTaskID)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// CancelCrawl cancels a crawl job on the external service.
func (s *TaskService) CancelCrawl(ctx context.Context, fcTaskID string) error {
	return s.crawler.CancelJob(ctx, fcTaskID)
}
