package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fcmanager/internal/common"
	"fcmanager/internal/domain/model"
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	// FindByIDForUpdate locks the row for the duration of the passed
	// transaction so two admins cannot review the same task at once.
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Task, error)
	GetStatus(ctx context.Context, id string) (model.TaskStatus, error)

	// UpdateFields applies a partial edit as one statement guarded on
	// status IN ('pending','rejected'); returns rows affected.
	UpdateFields(ctx context.Context, id string, update model.TaskUpdate) (int64, error)

	// SetReviewed stamps the review outcome: status, reviewer, review
	// time and (on approval) the external crawl job id.
	SetReviewed(ctx context.Context, tx *sql.Tx, id string, status model.TaskStatus, reviewerID string, fcTaskID *string) error

	List(ctx context.Context, filter model.TaskFilter, limit, offset int) ([]model.Task, int, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByAccountID(ctx context.Context, tx *sql.Tx, accountID string) error
}

type pgTaskRepository struct {
	db *sql.DB
}

func NewPgTaskRepository(db *sql.DB) TaskRepository {
	return &pgTaskRepository{db: db}
}

func (r *pgTaskRepository) Create(ctx context.Context, t *model.Task) error {
	query := `INSERT INTO tasks (id, applicant_id, reviewer_id, name, description, category, site_url, schedule, status, approved_at, fc_task_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.ApplicantID, t.ReviewerID, t.Name, t.Description, t.Category,
		t.SiteURL, t.Schedule, t.Status, t.ApprovedAt, t.FCTaskID,
	)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Create: %w", err)
	}
	return nil
}

const taskColumns = `id, applicant_id, reviewer_id, created_at, approved_at, name, description, category, site_url, schedule, status, fc_task_id`

func scanTask(row *sql.Row) (*model.Task, error) {
	t := &model.Task{}
	err := row.Scan(
		&t.ID, &t.ApplicantID, &t.ReviewerID, &t.CreatedAt, &t.ApprovedAt,
		&t.Name, &t.Description, &t.Category, &t.SiteURL, &t.Schedule,
		&t.Status, &t.FCTaskID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgTaskRepository.FindByID: %w", err)
	}
	return task, nil
}

func (r *pgTaskRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`
	task, err := scanTask(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgTaskRepository.FindByIDForUpdate: %w", err)
	}
	return task, nil
}

func (r *pgTaskRepository) GetStatus(ctx context.Context, id string) (model.TaskStatus, error) {
	var status model.TaskStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("pgTaskRepository.GetStatus: %w", err)
	}
	return status, nil
}

func (r *pgTaskRepository) UpdateFields(ctx context.Context, id string, update model.TaskUpdate) (int64, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if update.SiteURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("site_url = $%d", argID))
		args = append(args, *update.SiteURL)
		argID++
	}
	if update.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, *update.Name)
		argID++
	}
	if update.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argID))
		args = append(args, *update.Description)
		argID++
	}
	if update.Schedule != nil {
		setClauses = append(setClauses, fmt.Sprintf("schedule = $%d", argID))
		args = append(args, *update.Schedule)
		argID++
	}
	if len(setClauses) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE id = $%d AND status IN ('pending', 'rejected')`,
		strings.Join(setClauses, ", "), argID,
	)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("pgTaskRepository.UpdateFields: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgTaskRepository) SetReviewed(ctx context.Context, tx *sql.Tx, id string, status model.TaskStatus, reviewerID string, fcTaskID *string) error {
	query := `UPDATE tasks
	          SET status = $1, approved_at = CURRENT_TIMESTAMP, reviewer_id = $2, fc_task_id = $3
	          WHERE id = $4`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, reviewerID, fcTaskID, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, status, reviewerID, fcTaskID, id)
	}
	if err != nil {
		return fmt.Errorf("pgTaskRepository.SetReviewed: %w", err)
	}
	return nil
}

// buildFilter renders the conjunctive WHERE clause shared by the count and
// page queries, so the total always reflects the same predicate as the page.
func buildFilter(filter model.TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("(t.applicant_id = $%d OR t.reviewer_id = $%d)", argID, argID+1))
		args = append(args, filter.UserID, filter.UserID)
		argID += 2
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argID))
		args = append(args, filter.Status)
		argID++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("t.category = $%d", argID))
		args = append(args, filter.Category)
		argID++
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.created_at >= $%d", argID))
		args = append(args, *filter.StartDate)
		argID++
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.created_at <= $%d", argID))
		args = append(args, *filter.EndDate)
		argID++
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *pgTaskRepository) List(ctx context.Context, filter model.TaskFilter, limit, offset int) ([]model.Task, int, error) {
	whereClause, args := buildFilter(filter)

	countQuery := `SELECT COUNT(*) FROM tasks t` + whereClause
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgTaskRepository.List count: %w", err)
	}

	query := `SELECT t.id, t.applicant_id, t.reviewer_id, t.created_at, t.approved_at,
	       t.name, t.description, t.category, t.site_url, t.schedule, t.status, t.fc_task_id,
	       a.username AS applicant_name, rv.username AS reviewer_name
	FROM tasks t
	LEFT JOIN accounts a ON t.applicant_id = a.id
	LEFT JOIN accounts rv ON t.reviewer_id = rv.id` + whereClause +
		fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgTaskRepository.List query: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.ApplicantID, &t.ReviewerID, &t.CreatedAt, &t.ApprovedAt,
			&t.Name, &t.Description, &t.Category, &t.SiteURL, &t.Schedule,
			&t.Status, &t.FCTaskID, &t.ApplicantName, &t.ReviewerName,
		); err != nil {
			return nil, 0, fmt.Errorf("pgTaskRepository.List scan: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgTaskRepository.List rows.Err: %w", err)
	}
	return tasks, total, nil
}

func (r *pgTaskRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("pgTaskRepository.Delete: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgTaskRepository) DeleteByAccountID(ctx context.Context, tx *sql.Tx, accountID string) error {
	query := `DELETE FROM tasks WHERE applicant_id = $1 OR reviewer_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, accountID)
	} else {
		_, err = r.db.ExecContext(ctx, query, accountID)
	}
	if err != nil {
		return fmt.Errorf("pgTaskRepository.DeleteByAccountID: %w", err)
	}
	return nil
}
