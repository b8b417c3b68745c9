package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/academic-timetable-api/pkg/config"
)

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RunLock serialises generation runs per timetable using SET NX with a TTL.
// The engine itself gives no cross-run guarantee, so the caller must hold the
// lock for the duration of a run.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunLock builds a RunLock with the given TTL per acquisition.
func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RunLock{client: client, ttl: ttl}
}

func (l *RunLock) key(timetableID int64) string {
	return fmt.Sprintf("generation:timetable:%d", timetableID)
}

// Acquire attempts to take the lock for a timetable. It returns false when
// another run already holds it.
func (l *RunLock) Acquire(ctx context.Context, timetableID int64, token string) (bool, error) {
	return l.client.SetNX(ctx, l.key(timetableID), token, l.ttl).Result()
}

// Release frees the lock if the token still owns it.
func (l *RunLock) Release(ctx context.Context, timetableID int64, token string) error {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	return l.client.Eval(ctx, script, []string{l.key(timetableID)}, token).Err()
}
