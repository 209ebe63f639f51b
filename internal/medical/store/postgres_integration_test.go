//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petidentity/internal/fingerprint"
	"petidentity/internal/medical/models"
	"petidentity/internal/medical/store"
	petmodels "petidentity/internal/pets/models"
	petstore "petidentity/internal/pets/store"
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
	ctx      context.Context
	petID    int64
	clinicID int64
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

	users := userstore.NewPostgres(s.postgres.DB)
	owner := &usermodels.User{Name: "Budi", Email: "budi@example.com", PasswordHash: "h", Role: domain.RoleOwner, CreatedAt: time.Now()}
	clinic := &usermodels.User{Name: "Klinik", Email: "klinik@example.com", PasswordHash: "h", Role: domain.RoleClinic, CreatedAt: time.Now()}
	s.Require().NoError(users.Create(s.ctx, owner))
	s.Require().NoError(users.Create(s.ctx, clinic))
	s.clinicID = clinic.ID

	now := time.Now().UTC()
	pet := &petmodels.Pet{PublicID: "PET-00000001", Name: "Rex", Species: "dog", OwnerID: owner.ID,
		BirthDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Status: domain.PetStatusRegistered,
		CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(petstore.NewPostgres(s.postgres.DB).Create(s.ctx, pet))
	s.petID = pet.ID
}

func (s *PostgresStoreSuite) record(givenAt time.Time) *models.MedicalRecord {
	ledgerID := int64(3)
	notes := "left flank"
	r := &models.MedicalRecord{
		PetID: s.petID, ClinicID: s.clinicID, VaccineType: "rabies", BatchNumber: "RB-1",
		GivenAt: givenAt, Notes: &notes, Status: domain.ReviewPending, LedgerRecordID: &ledgerID,
		TxRef: "0xfeed", CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	r.Fingerprint = fingerprint.MedicalRecord(r.Snapshot())
	s.Require().NoError(s.store.Create(s.ctx, r))
	return r
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	r := s.record(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Fingerprint, found.Fingerprint)
	s.Equal("left flank", *found.Notes)
	s.Nil(found.EvidenceURL)
	s.Equal(int64(3), *found.LedgerRecordID)
	s.True(r.GivenAt.Equal(found.GivenAt))

	_, err = s.store.FindByID(s.ctx, r.ID+100)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListsAndResolve() {
	older := s.record(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := s.record(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	byPet, err := s.store.ListByPet(s.ctx, s.petID)
	s.Require().NoError(err)
	s.Require().Len(byPet, 2)
	s.Equal(newer.ID, byPet[0].ID)

	review := models.Review{Status: domain.ReviewVerified, ReviewerID: s.clinicID, ReviewedAt: time.Now().UTC(), TxRef: "0xbeef"}
	s.Require().NoError(s.store.Resolve(s.ctx, older.ID, review))
	s.ErrorIs(s.store.Resolve(s.ctx, older.ID, review), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.Resolve(s.ctx, older.ID+100, review), sentinel.ErrNotFound)

	pending, err := s.store.ListPending(s.ctx, s.clinicID)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(newer.ID, pending[0].ID)

	count, err := s.store.CountRecords(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}
