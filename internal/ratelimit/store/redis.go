package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"petidentity/internal/ratelimit/models"
)

const (
	fieldFailures    = "failures"
	fieldLastFailure = "last_failure"
	fieldLockedUntil = "locked_until"
)

// Redis keeps one hash per key, removed by Redis once its window lapses, so
// every API replica sees the same counters.
type Redis struct {
	rdb redis.Cmdable
}

func NewRedis(rdb redis.Cmdable) *Redis {
	return &Redis{rdb: rdb}
}

func (s *Redis) Get(ctx context.Context, key models.Key) (*models.Lockout, error) {
	fields, err := s.rdb.HGetAll(ctx, key.String()).Result()
	if err != nil {
		return nil, fmt.Errorf("get lockout: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decode(fields)
}

func (s *Redis) RecordFailure(ctx context.Context, key models.Key, at time.Time, window time.Duration) (*models.Lockout, error) {
	k := key.String()
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, k, fieldFailures, 1)
		pipe.HSet(ctx, k, fieldLastFailure, at.UnixMilli())
		pipe.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record login failure: %w", err)
	}
	return &models.Lockout{FailureCount: int(incr.Val()), LastFailureAt: at.Truncate(time.Millisecond)}, nil
}

func (s *Redis) Lock(ctx context.Context, key models.Key, until time.Time) error {
	k := key.String()
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldLockedUntil, until.UnixMilli())
		pipe.PExpireAt(ctx, k, until)
		return nil
	})
	if err != nil {
		return fmt.Errorf("lock login: %w", err)
	}
	return nil
}

func (s *Redis) Clear(ctx context.Context, key models.Key) error {
	if err := s.rdb.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

func decode(fields map[string]string) (*models.Lockout, error) {
	rec := &models.Lockout{}
	if v, ok := fields[fieldFailures]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("decode lockout failures: %w", err)
		}
		rec.FailureCount = n
	}
	if v, ok := fields[fieldLastFailure]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode lockout last failure: %w", err)
		}
		rec.LastFailureAt = time.UnixMilli(ms)
	}
	if v, ok := fields[fieldLockedUntil]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode lockout deadline: %w", err)
		}
		until := time.UnixMilli(ms)
		rec.LockedUntil = &until
	}
	return rec, nil
}
