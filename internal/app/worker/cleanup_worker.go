package worker

import (
	"context"
	"time"

	"fcmanager/internal/app/service"
	"fcmanager/internal/platform/config"
	"fcmanager/internal/platform/logging"
	"fcmanager/internal/platform/queue"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CleanupWorker runs the stale pending-account sweep on a recurring
// schedule. A Redis lock keeps concurrent instances from sweeping at the
// same time; whoever loses the lock simply skips the round. Sweep errors
// are logged inside the service and never crash the worker.
type CleanupWorker struct {
	rdb      *redis.Client
	accounts *service.AccountService
}

func NewCleanupWorker(rdb *redis.Client, accounts *service.AccountService) *CleanupWorker {
	return &CleanupWorker{rdb: rdb, accounts: accounts}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	interval := time.Duration(config.AppConfig.CleanupIntervalHours) * time.Hour
	logging.L.Info("cleanup worker started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.L.Info("cleanup worker stopping")
			return
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *CleanupWorker) runSweep(ctx context.Context) {
	lockKey := config.AppConfig.CleanupLockKey
	lockValue := uuid.NewString()
	lockTTL := time.Duration(config.AppConfig.CleanupLockTTLSeconds) * time.Second

	ok, err := queue.AcquireLock(ctx, w.rdb, lockKey, lockValue, lockTTL)
	if err != nil {
		logging.L.Error("cleanup worker: lock acquisition failed", zap.Error(err))
		return
	}
	if !ok {
		logging.L.Info("cleanup worker: another instance holds the lock, skipping round")
		return
	}
	defer func() {
		released, err := queue.ReleaseLock(ctx, w.rdb, lockKey, lockValue)
		if err != nil {
			logging.L.Error("cleanup worker: lock release failed", zap.Error(err))
		} else if !released {
			logging.L.Warn("cleanup worker: lock expired before release")
		}
	}()

	count := w.accounts.CleanupPending(ctx, config.AppConfig.CleanupThresholdDays)
	logging.L.Info("cleanup sweep finished", zap.Int("removed", count))
}
