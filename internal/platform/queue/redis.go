package queue

import (
	"context"
	"time"

	"fcmanager/internal/platform/config"
	"fcmanager/internal/platform/logging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var RDB *redis.Client

func ConnectRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		logging.L.Fatal("Error connecting to Redis", zap.Error(err))
	}
	logging.L.Info("Connected to Redis")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		logging.L.Info("Redis connection closed")
	}
}

// releaseScript deletes the lock only when the stored value still matches,
// so an expired-and-retaken lock is never released by the old holder.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// AcquireLock takes a best-effort distributed lock via SET NX PX.
// Returns false when another holder owns the key.
func AcquireLock(ctx context.Context, rdb *redis.Client, key, value string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, key, value, ttl).Result()
}

// ReleaseLock gives the lock back via a CAS delete. Returns true when this
// holder's value was still present and the key was deleted.
func ReleaseLock(ctx context.Context, rdb *redis.Client, key, value string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, rdb, []string{key}, value).Result()
	if err != nil {
		return false, err
	}
	n, ok := deleted.(int64)
	return ok && n == 1, nil
}
