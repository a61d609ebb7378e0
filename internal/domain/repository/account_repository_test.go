package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"fcmanager/internal/common"
	"fcmanager/internal/domain/model"
	"fcmanager/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgAccountRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPgAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts (id, username, hashed_password, status, role)`)).
		WithArgs("acc-1", "alice", "hash", "pending", "user").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), &model.Account{
		ID:             "acc-1",
		Username:       "alice",
		HashedPassword: "hash",
		Status:         model.AccountStatusPending,
		Role:           model.RoleUser,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAccountRepository_CreateDuplicateUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPgAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), &model.Account{
		ID: "acc-2", Username: "alice", HashedPassword: "hash",
		Status: model.AccountStatusPending, Role: model.RoleUser,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAccountRepository_FindByUsernameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPgAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE username = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "hashed_password", "status", "role",
			"created_at", "approved_at", "approved_by", "reject_reason",
		}))

	_, err = repo.FindByUsername(context.Background(), "ghost")
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAccountRepository_MarkApproved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPgAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'approved', approved_at = CURRENT_TIMESTAMP, approved_by = $1 WHERE id = $2 AND status = 'pending'`)).
		WithArgs("admin-1", "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.MarkApproved(context.Background(), nil, "acc-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAccountRepository_MarkRejectedPersistsReason(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPgAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'rejected', approved_at = CURRENT_TIMESTAMP, approved_by = $1, reject_reason = $2 WHERE id = $3 AND status = 'pending'`)).
		WithArgs("admin-1", "incomplete application", "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.MarkRejected(context.Background(), nil, "acc-1", "admin-1", "incomplete application")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAccountRepository_MarkApprovedAlreadyReviewed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPgAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'approved'`)).
		WithArgs("admin-1", "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.MarkApproved(context.Background(), nil, "acc-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "guard in WHERE clause must report a lost race")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAccountRepository_FindStalePendingForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewPgAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM accounts WHERE status = 'pending' AND created_at < $1 FOR UPDATE`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acc-1").AddRow("acc-2"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	ids, err := repo.FindStalePendingForUpdate(context.Background(), tx, time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, []string{"acc-1", "acc-2"}, ids)
}
