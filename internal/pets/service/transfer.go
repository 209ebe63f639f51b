package service

import (
	"context"
	"errors"
	"fmt"

	"petidentity/internal/pets/models"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/sentinel"
	"petidentity/pkg/requestcontext"
)

var errNoPendingTransfer = dErrors.New(dErrors.CodeNotFound, "no pending transfer for this pet")

// InitiateTransfer offers ownerID's pet to the owner account registered under
// newOwnerEmail. A pet has at most one pending transfer.
func (s *Service) InitiateTransfer(ctx context.Context, ownerID, petID int64, newOwnerEmail string) (*models.OwnershipRecord, error) {
	pet, err := s.FindPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != ownerID {
		return nil, dErrors.New(dErrors.CodeNotFound, "pet not found")
	}
	if pet.Status == domain.PetStatusTransferPending {
		return nil, dErrors.New(dErrors.CodeConflict, "a transfer is already pending for this pet")
	}
	if _, err := s.store.FindPendingTransfer(ctx, petID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "a transfer is already pending for this pet")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfers")
	}

	newOwner, err := s.users.FindByEmail(ctx, newOwnerEmail)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "new owner is not registered")
		}
		return nil, err
	}
	if newOwner.Role != domain.RoleOwner {
		return nil, dErrors.New(dErrors.CodeValidation, "new owner must have the OWNER role")
	}
	if newOwner.ID == ownerID {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot transfer a pet to its current owner")
	}

	record := &models.OwnershipRecord{
		PetID:       petID,
		FromOwnerID: ownerID,
		ToOwnerID:   newOwner.ID,
		CreatedAt:   requestcontext.Now(ctx),
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateTransfer(ctx, record); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "a transfer is already pending for this pet")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create transfer")
		}
		if err := s.store.SetStatus(ctx, petID, domain.PetStatusTransferPending); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pet status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "ownership transfer initiated",
		"pet_id", petID,
		"from_owner_id", ownerID,
		"to_owner_id", newOwner.ID,
	)
	s.notify(ctx, newOwner.ID, "Incoming pet transfer",
		fmt.Sprintf("%s (%s) is waiting for you to accept the transfer.", pet.Name, pet.PublicID))
	return record, nil
}

// AcceptTransfer completes the pending transfer of petID to newOwnerID.
func (s *Service) AcceptTransfer(ctx context.Context, newOwnerID, petID int64) (*models.Pet, error) {
	record, err := s.store.FindPendingTransfer(ctx, petID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errNoPendingTransfer
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer")
	}
	if record.ToOwnerID != newOwnerID {
		return nil, errNoPendingTransfer
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CompleteTransfer(ctx, record.ID, now); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return errNoPendingTransfer
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete transfer")
		}
		if err := s.store.SetOwner(ctx, petID, newOwnerID, domain.PetStatusRegistered); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pet owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pet, err := s.FindPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "ownership transfer completed",
		"pet_id", petID,
		"from_owner_id", record.FromOwnerID,
		"to_owner_id", newOwnerID,
	)
	s.notify(ctx, record.FromOwnerID, "Transfer completed",
		fmt.Sprintf("%s (%s) now belongs to its new owner.", pet.Name, pet.PublicID))
	s.notify(ctx, newOwnerID, "Transfer accepted",
		fmt.Sprintf("You are now the owner of %s (%s).", pet.Name, pet.PublicID))
	return pet, nil
}
