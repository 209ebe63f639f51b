package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petidentity/internal/fingerprint"
	"petidentity/internal/pets/models"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
)

type PetStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestPetStoreSuite(t *testing.T) {
	suite.Run(t, new(PetStoreSuite))
}

func (s *PetStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *PetStoreSuite) pet(publicID, name string, owner int64) *models.Pet {
	p := &models.Pet{PublicID: publicID, Name: name, Species: "dog", OwnerID: owner,
		Status: domain.PetStatusRegistered, BirthDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *PetStoreSuite) TestCreateRejectsDuplicatePublicID() {
	s.pet("PET-00000001", "Rex", 1)
	err := s.store.Create(s.ctx, &models.Pet{PublicID: "PET-00000001"})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PetStoreSuite) TestReturnedPetsAreCopies() {
	p := s.pet("PET-00000001", "Rex", 1)
	found, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	found.Name = "changed"

	again, _ := s.store.FindByPublicID(s.ctx, "PET-00000001")
	s.Equal("Rex", again.Name)
}

func (s *PetStoreSuite) TestLinkLedgerKeepsTxRefWhenEmpty() {
	p := s.pet("PET-00000001", "Rex", 1)
	fp := fingerprint.Pet(p.Snapshot())

	s.Require().NoError(s.store.LinkLedger(s.ctx, p.ID, 3, fp, "0xfeed"))
	s.Require().NoError(s.store.LinkLedger(s.ctx, p.ID, 4, fp, ""))

	found, _ := s.store.FindByID(s.ctx, p.ID)
	s.Equal(int64(4), *found.LedgerID)
	s.Equal("0xfeed", found.TxRef)
	s.ErrorIs(s.store.LinkLedger(s.ctx, 99, 1, fp, ""), sentinel.ErrNotFound)
}

func (s *PetStoreSuite) TestUpdateDetailsRejectsStaleRevision() {
	p := s.pet("PET-00000001", "Rex", 1)
	s.Require().NoError(s.store.LinkLedger(s.ctx, p.ID, 3, fingerprint.Pet(p.Snapshot()), "0xfeed"))
	base, _ := s.store.FindByID(s.ctx, p.ID)
	prev := base.Revision()

	renamed := *base
	renamed.Name = "Rexy"
	renamed.Fingerprint = renamed.CurrentFingerprint()
	s.Require().NoError(s.store.UpdateDetails(s.ctx, &renamed, prev))

	stale := *base
	stale.Species = "canine-mix"
	stale.Fingerprint = stale.CurrentFingerprint()
	s.ErrorIs(s.store.UpdateDetails(s.ctx, &stale, prev), sentinel.ErrConflict)

	found, _ := s.store.FindByID(s.ctx, p.ID)
	s.Equal("Rexy", found.Name)
	s.Equal("dog", found.Species)

	aged := *found
	aged.Age = 7
	s.Require().NoError(s.store.UpdateDetails(s.ctx, &aged, found.Revision()))
	s.ErrorIs(s.store.UpdateDetails(s.ctx, found, found.Revision()), sentinel.ErrConflict)
	s.ErrorIs(s.store.UpdateDetails(s.ctx, &models.Pet{ID: 99}, prev), sentinel.ErrNotFound)
}

func (s *PetStoreSuite) TestListFilters() {
	s.pet("PET-00000001", "Rex", 1)
	s.pet("PET-00000002", "Milo", 2)
	s.pet("PET-0000ABCD", "Luna", 1)

	owner := int64(1)
	mine, err := s.store.List(s.ctx, models.ListFilter{OwnerID: &owner})
	s.Require().NoError(err)
	s.Len(mine, 2)

	byID, err := s.store.List(s.ctx, models.ListFilter{Search: "abcd"})
	s.Require().NoError(err)
	s.Require().Len(byID, 1)
	s.Equal("Luna", byID[0].Name)
}

func (s *PetStoreSuite) TestSinglePendingTransfer() {
	p := s.pet("PET-00000001", "Rex", 1)
	first := &models.OwnershipRecord{PetID: p.ID, FromOwnerID: 1, ToOwnerID: 2, CreatedAt: time.Now()}
	s.Require().NoError(s.store.CreateTransfer(s.ctx, first))
	s.ErrorIs(s.store.CreateTransfer(s.ctx, &models.OwnershipRecord{PetID: p.ID, FromOwnerID: 1, ToOwnerID: 3}), sentinel.ErrConflict)

	s.Require().NoError(s.store.CompleteTransfer(s.ctx, first.ID, time.Now()))
	s.ErrorIs(s.store.CompleteTransfer(s.ctx, first.ID, time.Now()), sentinel.ErrNotFound)
	_, err := s.store.FindPendingTransfer(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	n, _ := s.store.CountCompletedTransfers(s.ctx)
	s.Equal(int64(1), n)
}
