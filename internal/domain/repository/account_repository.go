package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fcmanager/internal/common"
	"fcmanager/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
	GetRole(ctx context.Context, id string) (string, error)
	GetUsername(ctx context.Context, id string) (string, error)
	GetStatus(ctx context.Context, tx *sql.Tx, id string) (model.AccountStatus, error)

	// MarkApproved and MarkRejected are conditional updates guarded on
	// status='pending'; they report rows affected so callers can tell a
	// lost race from a missing row.
	MarkApproved(ctx context.Context, tx *sql.Tx, id, adminID string) (int64, error)
	MarkRejected(ctx context.Context, tx *sql.Tx, id, adminID, reason string) (int64, error)

	FindStalePendingForUpdate(ctx context.Context, tx *sql.Tx, cutoff time.Time) ([]string, error)
	DeleteByID(ctx context.Context, tx *sql.Tx, id string) error
}

type pgAccountRepository struct {
	db *sql.DB
}

func NewPgAccountRepository(db *sql.DB) AccountRepository {
	return &pgAccountRepository{db: db}
}

func (r *pgAccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `INSERT INTO accounts (id, username, hashed_password, status, role)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, account.ID, account.Username, account.HashedPassword, account.Status, account.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("account with this username already exists: %w", common.ErrValidation)
		}
		return fmt.Errorf("pgAccountRepository.Create: %w", err)
	}
	return nil
}

const accountColumns = `id, username, hashed_password, status, role, created_at, approved_at, approved_by, reject_reason`

func (r *pgAccountRepository) scanAccount(row *sql.Row) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(
		&account.ID, &account.Username, &account.HashedPassword, &account.Status, &account.Role,
		&account.CreatedAt, &account.ApprovedAt, &account.ApprovedBy, &account.RejectReason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *pgAccountRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	account, err := r.scanAccount(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgAccountRepository.FindByUsername: %w", err)
	}
	return account, nil
}

func (r *pgAccountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := r.scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgAccountRepository.FindByID: %w", err)
	}
	return account, nil
}

func (r *pgAccountRepository) GetRole(ctx context.Context, id string) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM accounts WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("pgAccountRepository.GetRole: %w", err)
	}
	return role, nil
}

func (r *pgAccountRepository) GetUsername(ctx context.Context, id string) (string, error) {
	var username string
	err := r.db.QueryRowContext(ctx, `SELECT username FROM accounts WHERE id = $1`, id).Scan(&username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("pgAccountRepository.GetUsername: %w", err)
	}
	return username, nil
}

func (r *pgAccountRepository) GetStatus(ctx context.Context, tx *sql.Tx, id string) (model.AccountStatus, error) {
	query := `SELECT status FROM accounts WHERE id = $1`
	var status model.AccountStatus
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, id).Scan(&status)
	} else {
		err = r.db.QueryRowContext(ctx, query, id).Scan(&status)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("pgAccountRepository.GetStatus: %w", err)
	}
	return status, nil
}

func (r *pgAccountRepository) MarkApproved(ctx context.Context, tx *sql.Tx, id, adminID string) (int64, error) {
	query := `UPDATE accounts
	          SET status = 'approved', approved_at = CURRENT_TIMESTAMP, approved_by = $1
	          WHERE id = $2 AND status = 'pending'`
	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, adminID, id)
	} else {
		res, err = r.db.ExecContext(ctx, query, adminID, id)
	}
	if err != nil {
		return 0, fmt.Errorf("pgAccountRepository.MarkApproved: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgAccountRepository) MarkRejected(ctx context.Context, tx *sql.Tx, id, adminID, reason string) (int64, error) {
	query := `UPDATE accounts
	          SET status = 'rejected', approved_at = CURRENT_TIMESTAMP, approved_by = $1, reject_reason = $2
	          WHERE id = $3 AND status = 'pending'`
	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, adminID, reason, id)
	} else {
		res, err = r.db.ExecContext(ctx, query, adminID, reason, id)
	}
	if err != nil {
		return 0, fmt.Errorf("pgAccountRepository.MarkRejected: %w", err)
	}
	return res.RowsAffected()
}

// FindStalePendingForUpdate locks the candidate rows so a concurrent
// approval cannot race the cleanup sweep.
func (r *pgAccountRepository) FindStalePendingForUpdate(ctx context.Context, tx *sql.Tx, cutoff time.Time) ([]string, error) {
	query := `SELECT id FROM accounts WHERE status = 'pending' AND created_at < $1 FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("pgAccountRepository.FindStalePendingForUpdate: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgAccountRepository.FindStalePendingForUpdate scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgAccountRepository.FindStalePendingForUpdate rows.Err: %w", err)
	}
	return ids, nil
}

func (r *pgAccountRepository) DeleteByID(ctx context.Context, tx *sql.Tx, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("pgAccountRepository.DeleteByID: %w", err)
	}
	return nil
}
