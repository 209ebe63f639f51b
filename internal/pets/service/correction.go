package service

import (
	"context"

	correctionmodels "petidentity/internal/corrections/models"
	"petidentity/internal/fingerprint"
	"petidentity/internal/pets/models"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/requestcontext"
)

// RequestCorrection files a PENDING change to one field of ownerID's pet.
// Nothing is written to the ledger until the request is approved.
func (s *Service) RequestCorrection(ctx context.Context, ownerID, petID int64, in *models.CorrectionInput) (*correctionmodels.CorrectionRequest, error) {
	pet, err := s.FindPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != ownerID {
		return nil, dErrors.New(dErrors.CodeNotFound, "pet not found")
	}

	field, err := correctionmodels.ParseField(in.Field)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	value, err := field.ParseValue(in.NewValue, now)
	if err != nil {
		return nil, err
	}
	current := field.Current(pet)
	if value == current {
		return nil, dErrors.New(dErrors.CodeValidation, "newValue matches the current value")
	}

	c := &correctionmodels.CorrectionRequest{
		PetID:     pet.ID,
		OwnerID:   ownerID,
		Field:     field,
		OldValue:  current,
		NewValue:  value,
		Reason:    in.Reason,
		Status:    domain.ReviewPending,
		CreatedAt: now,
	}
	c.Fingerprint = fingerprint.Correction(c.Snapshot())
	if err := s.corrections.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store correction request")
	}

	s.logger.InfoContext(ctx, "correction requested",
		"pet_id", pet.ID,
		"correction_id", c.ID,
		"field", string(field),
	)
	return c, nil
}
