package service

import (
	"context"
	"database/sql"
	"time"

	"fcmanager/internal/common"
	"fcmanager/internal/domain/repository"
	"fcmanager/internal/platform/logging"

	"go.uber.org/zap"
)

// AccountService owns the account review state machine and the stale
// pending-account sweep.
type AccountService struct {
	accountRepo repository.AccountRepository
	profileRepo repository.ProfileRepository
	taskRepo    repository.TaskRepository
	db          *sql.DB
}

func NewAccountService(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfileRepository,
	taskRepo repository.TaskRepository,
	db *sql.DB,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		taskRepo:    taskRepo,
		db:          db,
	}
}

// Approve moves a pending account to approved. The guard lives in the
// UPDATE's WHERE clause; a zero rowcount is classified afterwards so a
// lost race reports ErrInvalidState rather than silently succeeding.
func (s *AccountService) Approve(ctx context.Context, accountID, adminID string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := s.accountRepo.MarkApproved(ctx, tx, accountID, adminID)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		if _, err := s.accountRepo.GetStatus(ctx, tx, accountID); err != nil {
			return "", err // common.ErrNotFound
		}
		return "", common.Errorf("account has already been reviewed: %w", common.ErrInvalidState)
	}

	if err := tx.Commit(); err != nil {
		return "", common.Errorf("failed to commit transaction: %w", err)
	}
	logging.L.Info("account approved", zap.String("account_id", accountID), zap.String("admin_id", adminID))
	return "account approved", nil
}

// Reject refuses a pending account and records the reason.
func (s *AccountService) Reject(ctx context.Context, accountID, adminID, reason string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := s.accountRepo.MarkRejected(ctx, tx, accountID, adminID, reason)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		if _, err := s.accountRepo.GetStatus(ctx, tx, accountID); err != nil {
			return "", err
		}
		return "", common.Errorf("account has already been reviewed: %w", common.ErrInvalidState)
	}

	if err := tx.Commit(); err != nil {
		return "", common.Errorf("failed to commit transaction: %w", err)
	}
	logging.L.Info("account rejected", zap.String("account_id", accountID), zap.String("admin_id", adminID))
	return "account rejected", nil
}

// CleanupPending deletes every account still pending after thresholdDays,
// cascading to its profile and its authored/reviewed tasks, all in one
// transaction. Any failure rolls back the whole sweep and reports zero
// removals; background callers log and carry on.
func (s *AccountService) CleanupPending(ctx context.Context, thresholdDays int) int {
	if thresholdDays < 0 {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -thresholdDays)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logging.L.Error("cleanup sweep: failed to begin transaction", zap.Error(err))
		return 0
	}
	defer tx.Rollback()

	ids, err := s.accountRepo.FindStalePendingForUpdate(ctx, tx, cutoff)
	if err != nil {
		logging.L.Error("cleanup sweep: candidate selection failed", zap.Error(err))
		return 0
	}

	for _, id := range ids {
		if err := s.profileRepo.DeleteByUserID(ctx, tx, id); err != nil {
			logging.L.Error("cleanup sweep: profile delete failed", zap.String("account_id", id), zap.Error(err))
			return 0
		}
		if err := s.taskRepo.DeleteByAccountID(ctx, tx, id); err != nil {
			logging.L.Error("cleanup sweep: task delete failed", zap.String("account_id", id), zap.Error(err))
			return 0
		}
		if err := s.accountRepo.DeleteByID(ctx, tx, id); err != nil {
			logging.L.Error("cleanup sweep: account delete failed", zap.String("account_id", id), zap.Error(err))
			return 0
		}
	}

	if err := tx.Commit(); err != nil {
		logging.L.Error("cleanup sweep: commit failed", zap.Error(err))
		return 0
	}

	if len(ids) > 0 {
		logging.L.Info("cleanup sweep removed stale pending accounts", zap.Int("count", len(ids)))
	}
	return len(ids)
}

func (s *AccountService) GetRole(ctx context.Context, accountID string) (string, error) {
	return s.accountRepo.GetRole(ctx, accountID)
}

func (s *AccountService) GetUsername(ctx context.Context, accountID string) (string, error) {
	return s.accountRepo.GetUsername(ctx, accountID)
}
