//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petidentity/internal/notification/models"
	"petidentity/internal/notification/store"
	usermodels "petidentity/internal/users/models"
	userstore "petidentity/internal/users/store"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
	"petidentity/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	users    *userstore.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.users = userstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "notifications", "correction_requests",
		"medical_records", "ownership_history", "pets", "users"))
}

func (s *PostgresStoreSuite) user(email string) int64 {
	u := &usermodels.User{Name: "N", Email: email, PasswordHash: "h", Role: domain.RoleOwner, CreatedAt: time.Now()}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u.ID
}

func (s *PostgresStoreSuite) TestListAndMarkRead() {
	alice := s.user("alice@example.com")
	bob := s.user("bob@example.com")
	base := time.Now().UTC().Truncate(time.Microsecond)

	older := &models.Notification{UserID: alice, Title: "older", CreatedAt: base}
	newer := &models.Notification{UserID: alice, Title: "newer", CreatedAt: base.Add(time.Minute)}
	s.Require().NoError(s.store.Create(s.ctx, older))
	s.Require().NoError(s.store.Create(s.ctx, newer))

	items, err := s.store.ListByUser(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal("newer", items[0].Title)

	_, err = s.store.MarkRead(s.ctx, bob, older.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	read, err := s.store.MarkRead(s.ctx, alice, older.ID)
	s.Require().NoError(err)
	s.True(read.IsRead)
}
