package service

import (
	"context"

	"petidentity/internal/medical/models"
	petmodels "petidentity/internal/pets/models"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
)

// RecordLister is the read side of the record store.
type RecordLister interface {
	ListByPet(ctx context.Context, petID int64) ([]*models.MedicalRecord, error)
}

// Vaccinations feeds the public pet trace. Rejected entries are left out.
type Vaccinations struct {
	records RecordLister
}

func NewVaccinations(records RecordLister) *Vaccinations {
	return &Vaccinations{records: records}
}

func (v *Vaccinations) ListVaccinations(ctx context.Context, petID int64) ([]petmodels.Vaccination, error) {
	records, err := v.records.ListByPet(ctx, petID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list medical records")
	}
	out := make([]petmodels.Vaccination, 0, len(records))
	for _, r := range records {
		if r.Status == domain.ReviewRejected {
			continue
		}
		out = append(out, petmodels.Vaccination{
			VaccineType: r.VaccineType,
			LastGivenAt: r.GivenAt,
			Status:      string(r.Status),
		})
	}
	return out, nil
}
