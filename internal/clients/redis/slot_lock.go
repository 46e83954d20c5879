package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

// SlotLock is a redis-backed try-lock with a TTL, so a crashed holder cannot
// wedge a slot forever.
type SlotLock struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewSlotLock(log *logger.Logger) (*SlotLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &SlotLock{
		log: log.With("service", "RedisSlotLock"),
		rdb: rdb,
		ttl: 2 * time.Minute,
	}, nil
}

func (l *SlotLock) TryLock(ctx context.Context, key string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (l *SlotLock) Unlock(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (l *SlotLock) Close() error {
	return l.rdb.Close()
}
