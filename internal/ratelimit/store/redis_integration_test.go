//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petidentity/internal/ratelimit/models"
	"petidentity/internal/ratelimit/store"
	"petidentity/pkg/testutil/containers"
)

type RedisLockoutStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisLockoutStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockoutStoreSuite))
}

func (s *RedisLockoutStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisLockoutStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushPrefix(context.Background(), "login:"))
}

func (s *RedisLockoutStoreSuite) TestFailuresAndLock() {
	ctx := context.Background()
	key := models.NewKey("clinic@example.com", "192.0.2.10")
	now := time.Now()

	for i := 1; i <= 2; i++ {
		rec, err := s.store.RecordFailure(ctx, key, now, time.Minute)
		s.Require().NoError(err)
		s.Equal(i, rec.FailureCount)
	}

	until := now.Add(10 * time.Minute)
	s.Require().NoError(s.store.Lock(ctx, key, until))

	rec, err := s.store.Get(ctx, key)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.Equal(2, rec.FailureCount)
	s.True(rec.IsLockedAt(now))
	s.WithinDuration(until, *rec.LockedUntil, time.Millisecond)

	ttl, err := s.redis.Client.PTTL(ctx, key.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 9*time.Minute)
}

func (s *RedisLockoutStoreSuite) TestWindowExpires() {
	ctx := context.Background()
	key := models.NewKey("owner@example.com", "192.0.2.11")

	_, err := s.store.RecordFailure(ctx, key, time.Now(), 100*time.Millisecond)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		rec, err := s.store.Get(ctx, key)
		return err == nil && rec == nil
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisLockoutStoreSuite) TestClear() {
	ctx := context.Background()
	key := models.NewKey("owner@example.com", "192.0.2.12")

	_, err := s.store.RecordFailure(ctx, key, time.Now(), time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Clear(ctx, key))

	rec, err := s.store.Get(ctx, key)
	s.NoError(err)
	s.Nil(rec)
}
