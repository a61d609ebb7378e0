package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"fcmanager/internal/app/service"
	"fcmanager/internal/common"
	"fcmanager/internal/domain/gateway"
	"fcmanager/internal/domain/model"
	"fcmanager/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCrawlGateway records calls and returns a canned job or a canned error.
type fakeCrawlGateway struct {
	job       gateway.Job
	createErr error
	created   []gateway.CreateJobRequest
	cancelled []string
}

func (f *fakeCrawlGateway) CreateJob(ctx context.Context, req gateway.CreateJobRequest) (*gateway.Job, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	job := f.job
	return &job, nil
}

func (f *fakeCrawlGateway) JobStatus(ctx context.Context, jobID string) (*gateway.JobStatus, error) {
	return &gateway.JobStatus{Status: "scraping", Total: 10, Completed: 4}, nil
}

func (f *fakeCrawlGateway) CancelJob(ctx context.Context, jobID string) error {
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

func newTaskService(t *testing.T, crawler gateway.CrawlGateway) (*service.TaskService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.NewTaskService(
		repository.NewPgTaskRepository(db),
		repository.NewPgAccountRepository(db),
		crawler,
		db,
	)
	return svc, mock
}

func pendingTaskRow(id, applicantID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "applicant_id", "reviewer_id", "created_at", "approved_at",
		"name", "description", "category", "site_url", "schedule", "status", "fc_task_id",
	}).AddRow(id, applicantID, nil, time.Now(), nil, "Docs Crawl", "crawl the docs", "docs", "https://example.com/docs", nil, "pending", nil)
}

func expectAdminRole(mock sqlmock.Sqlmock, accountID, role string) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT role FROM accounts WHERE id = $1`)).
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow(role))
}

func TestTaskService_CreateByUserStaysPending(t *testing.T) {
	crawler := &fakeCrawlGateway{}
	svc, mock := newTaskService(t, crawler)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks`)).
		WithArgs(sqlmock.AnyArg(), "acc-1", nil, "Docs Crawl", "crawl the docs", "docs",
			"https://example.com/docs", nil, "pending", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	task, err := svc.Create(context.Background(), "acc-1", model.RoleUser, service.CreateTaskRequest{
		Name:        "Docs Crawl",
		Description: "crawl the docs",
		Category:    "docs",
		SiteURL:     "https://example.com/docs",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, task.Status)
	assert.Nil(t, task.FCTaskID)
	assert.Empty(t, crawler.created, "a user submission must not reach the crawl service")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_CreateByAdminIsAutoApproved(t *testing.T) {
	crawler := &fakeCrawlGateway{job: gateway.Job{ID: "fc-1", URL: "https://example.com/docs"}}
	svc, mock := newTaskService(t, crawler)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks`)).
		WithArgs(sqlmock.AnyArg(), "admin-1", "admin-1", "Docs Crawl", "crawl the docs", "docs",
			"https://example.com/docs", nil, "approved", sqlmock.AnyArg(), "fc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	task, err := svc.Create(context.Background(), "admin-1", model.RoleAdmin, service.CreateTaskRequest{
		Name:        "Docs Crawl",
		Description: "crawl the docs",
		Category:    "docs",
		SiteURL:     "https://example.com/docs",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusApproved, task.Status)
	require.NotNil(t, task.FCTaskID)
	assert.Equal(t, "fc-1", *task.FCTaskID)

	require.Len(t, crawler.created, 1)
	assert.Equal(t, "docs-crawl", crawler.created[0].Name, "job names are slugified")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_CreateAdminGatewayFailureWritesNothing(t *testing.T) {
	crawler := &fakeCrawlGateway{createErr: common.ErrServiceUnavailable}
	svc, mock := newTaskService(t, crawler)

	_, err := svc.Create(context.Background(), "admin-1", model.RoleAdmin, service.CreateTaskRequest{
		Name:     "Docs Crawl",
		Category: "docs",
		SiteURL:  "https://example.com/docs",
	})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet(), "no row when the crawl job was never created")
}

func TestTaskService_CreateMissingFields(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})

	_, err := svc.Create(context.Background(), "acc-1", model.RoleUser, service.CreateTaskRequest{
		Name: "Docs Crawl",
	})
	assert.ErrorIs(t, err, common.ErrBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ApproveStartsCrawlAtomically(t *testing.T) {
	crawler := &fakeCrawlGateway{job: gateway.Job{ID: "fc-9"}}
	svc, mock := newTaskService(t, crawler)

	expectAdminRole(mock, "admin-1", model.RoleAdmin)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1 FOR UPDATE`)).
		WithArgs("task-1").
		WillReturnRows(pendingTaskRow("task-1", "acc-1"))
	mock.ExpectExec(regexp.QuoteMeta(`SET status = $1, approved_at = CURRENT_TIMESTAMP, reviewer_id = $2, fc_task_id = $3 WHERE id = $4`)).
		WithArgs("approved", "admin-1", "fc-9", "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	message, err := svc.Approve(context.Background(), "task-1", "admin-1", true)
	require.NoError(t, err)
	assert.Equal(t, "task approved and crawl started", message)
	require.Len(t, crawler.created, 1)
	assert.Equal(t, "https://example.com/docs", crawler.created[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ApproveGatewayFailureLeavesTaskPending(t *testing.T) {
	crawler := &fakeCrawlGateway{createErr: common.ErrServiceUnavailable}
	svc, mock := newTaskService(t, crawler)

	expectAdminRole(mock, "admin-1", model.RoleAdmin)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1 FOR UPDATE`)).
		WithArgs("task-1").
		WillReturnRows(pendingTaskRow("task-1", "acc-1"))
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), "task-1", "admin-1", true)
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet(), "the status write must be rolled back")
}

func TestTaskService_RejectSkipsCrawlService(t *testing.T) {
	crawler := &fakeCrawlGateway{}
	svc, mock := newTaskService(t, crawler)

	expectAdminRole(mock, "admin-1", model.RoleAdmin)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1 FOR UPDATE`)).
		WithArgs("task-1").
		WillReturnRows(pendingTaskRow("task-1", "acc-1"))
	mock.ExpectExec(regexp.QuoteMeta(`SET status = $1, approved_at = CURRENT_TIMESTAMP, reviewer_id = $2, fc_task_id = $3 WHERE id = $4`)).
		WithArgs("rejected", "admin-1", nil, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	message, err := svc.Approve(context.Background(), "task-1", "admin-1", false)
	require.NoError(t, err)
	assert.Equal(t, "task rejected", message)
	assert.Empty(t, crawler.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ApproveRequiresAdmin(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})

	expectAdminRole(mock, "acc-1", model.RoleUser)

	_, err := svc.Approve(context.Background(), "task-1", "acc-1", true)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ApproveAlreadyReviewed(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})

	reviewed := sqlmock.NewRows([]string{
		"id", "applicant_id", "reviewer_id", "created_at", "approved_at",
		"name", "description", "category", "site_url", "schedule", "status", "fc_task_id",
	}).AddRow("task-1", "acc-1", "admin-2", time.Now(), time.Now(), "Docs Crawl", "", "docs",
		"https://example.com/docs", nil, "approved", "fc-1")

	expectAdminRole(mock, "admin-1", model.RoleAdmin)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1 FOR UPDATE`)).
		WithArgs("task-1").
		WillReturnRows(reviewed)
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), "task-1", "admin-1", true)
	assert.ErrorIs(t, err, common.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ModifyNothingToUpdate(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})

	message, err := svc.Modify(context.Background(), "task-1", model.TaskUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "nothing to update", message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ModifyReviewedTask(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})
	name := "renamed"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET name = $1 WHERE id = $2 AND status IN ('pending', 'rejected')`)).
		WithArgs("renamed", "task-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM tasks WHERE id = $1`)).
		WithArgs("task-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))

	_, err := svc.Modify(context.Background(), "task-1", model.TaskUpdate{Name: &name})
	assert.ErrorIs(t, err, common.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ModifyUnknownTask(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})
	name := "renamed"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET name = $1 WHERE id = $2 AND status IN ('pending', 'rejected')`)).
		WithArgs("renamed", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM tasks WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	_, err := svc.Modify(context.Background(), "missing", model.TaskUpdate{Name: &name})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ListPaginationMath(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tasks t`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY t.created_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "applicant_id", "reviewer_id", "created_at", "approved_at",
			"name", "description", "category", "site_url", "schedule", "status",
			"fc_task_id", "applicant_name", "reviewer_name",
		}).AddRow("task-11", "acc-1", nil, time.Now(), nil, "n", "", "docs",
			"https://example.com", nil, "pending", nil, "alice", nil))

	page, err := svc.List(context.Background(), model.TaskFilter{}, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Len(t, page.Tasks, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_ListNormalizesPageArguments(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tasks t`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY t.created_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "applicant_id", "reviewer_id", "created_at", "approved_at",
			"name", "description", "category", "site_url", "schedule", "status",
			"fc_task_id", "applicant_name", "reviewer_name",
		}))

	page, err := svc.List(context.Background(), model.TaskFilter{}, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_DeleteUnknownTask(t *testing.T) {
	svc, mock := newTaskService(t, &fakeCrawlGateway{})

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_CancelCrawl(t *testing.T) {
	crawler := &fakeCrawlGateway{}
	svc, _ := newTaskService(t, crawler)

	require.NoError(t, svc.CancelCrawl(context.Background(), "fc-1"))
	assert.Equal(t, []string{"fc-1"}, crawler.cancelled)
}
