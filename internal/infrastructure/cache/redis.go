package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// ErrDisabled is returned when no address is configured; callers run
// without the Redis-backed features.
var ErrDisabled = errors.New("redis disabled: no address configured")

func OpenRedis(addr string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, ErrDisabled
	}
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db, DialTimeout: 2 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return r, nil
}
