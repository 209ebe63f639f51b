//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petidentity/internal/users/models"
	"petidentity/internal/users/store"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
	"petidentity/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
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
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "notifications", "correction_requests",
		"medical_records", "ownership_history", "pets", "users"))
}

func (s *PostgresStoreSuite) create(email string, role domain.Role) *models.User {
	u := &models.User{Name: "N", Email: email, PasswordHash: "h", Role: role, CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(s.ctx, u))
	return u
}

func (s *PostgresStoreSuite) TestCreateFindAndConflict() {
	u := s.create("Owner@Example.com", domain.RoleOwner)

	found, err := s.store.FindByEmail(s.ctx, "owner@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
	s.Equal(domain.RoleOwner, found.Role)

	err = s.store.Create(s.ctx, &models.User{Email: "owner@example.com", Role: domain.RoleOwner, CreatedAt: time.Now()})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestBindWallet() {
	u := s.create("wallet@example.com", domain.RoleOwner)
	addr := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	s.Require().NoError(s.store.BindWallet(s.ctx, u.ID, addr))
	s.NoError(s.store.BindWallet(s.ctx, u.ID, addr))
	s.ErrorIs(s.store.BindWallet(s.ctx, u.ID, "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"), sentinel.ErrConflict)
	s.ErrorIs(s.store.BindWallet(s.ctx, u.ID+100, addr), sentinel.ErrNotFound)

	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.WalletAddress)
	s.Equal(addr, *found.WalletAddress)
}

func (s *PostgresStoreSuite) TestListByRole() {
	s.create("o@example.com", domain.RoleOwner)
	s.create("c@example.com", domain.RoleClinic)

	role := domain.RoleClinic
	clinics, err := s.store.List(s.ctx, &role)
	s.Require().NoError(err)
	s.Require().Len(clinics, 1)
	s.Equal("c@example.com", clinics[0].Email)
}
