package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petidentity/internal/ratelimit/models"
)

type InMemoryLockoutStoreSuite struct {
	suite.Suite
	store *InMemory
	now   time.Time
	key   models.Key
}

func TestInMemoryLockoutStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLockoutStoreSuite))
}

func (s *InMemoryLockoutStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemory()
	s.store.now = func() time.Time { return s.now }
	s.key = models.NewKey("Owner@Example.com", "10.0.0.1")
}

func (s *InMemoryLockoutStoreSuite) TestGetMissingReturnsNil() {
	rec, err := s.store.Get(context.Background(), s.key)
	s.NoError(err)
	s.Nil(rec)
}

func (s *InMemoryLockoutStoreSuite) TestRecordFailureIncrements() {
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		rec, err := s.store.RecordFailure(ctx, s.key, s.now, time.Minute)
		s.Require().NoError(err)
		s.Equal(i, rec.FailureCount)
	}

	rec, err := s.store.Get(ctx, models.NewKey("owner@example.com", "10.0.0.1"))
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.Equal(3, rec.FailureCount)
}

func (s *InMemoryLockoutStoreSuite) TestWindowExpiry() {
	ctx := context.Background()
	_, err := s.store.RecordFailure(ctx, s.key, s.now, time.Minute)
	s.Require().NoError(err)

	s.now = s.now.Add(2 * time.Minute)
	rec, err := s.store.Get(ctx, s.key)
	s.NoError(err)
	s.Nil(rec)

	rec, err = s.store.RecordFailure(ctx, s.key, s.now, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, rec.FailureCount)
}

func (s *InMemoryLockoutStoreSuite) TestLockOutlivesWindow() {
	ctx := context.Background()
	_, err := s.store.RecordFailure(ctx, s.key, s.now, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Lock(ctx, s.key, s.now.Add(10*time.Minute)))

	s.now = s.now.Add(5 * time.Minute)
	rec, err := s.store.Get(ctx, s.key)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.True(rec.IsLockedAt(s.now))
}

func (s *InMemoryLockoutStoreSuite) TestClear() {
	ctx := context.Background()
	_, err := s.store.RecordFailure(ctx, s.key, s.now, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Clear(ctx, s.key))

	rec, err := s.store.Get(ctx, s.key)
	s.NoError(err)
	s.Nil(rec)
}

func (s *InMemoryLockoutStoreSuite) TestKeysAreIsolatedByIP() {
	ctx := context.Background()
	_, err := s.store.RecordFailure(ctx, s.key, s.now, time.Minute)
	s.Require().NoError(err)

	rec, err := s.store.Get(ctx, models.NewKey("owner@example.com", "10.0.0.2"))
	s.NoError(err)
	s.Nil(rec)
}
