package service

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"petidentity/internal/pets/models"
	usermodels "petidentity/internal/users/models"
	dErrors "petidentity/pkg/domain-errors"
)

// Trace builds the public view of the pet identified by publicID. The owner
// and the vaccinations are read concurrently once the pet is known.
func (s *Service) Trace(ctx context.Context, publicID string) (*models.Trace, error) {
	pet, err := s.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	var (
		owner        *usermodels.User
		vaccinations []models.Vaccination
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.FindByID(gctx, pet.OwnerID)
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}
		owner = u
		return nil
	})
	if s.vaccinations != nil {
		g.Go(func() error {
			v, err := s.vaccinations.ListVaccinations(gctx, pet.ID)
			if err != nil {
				return err
			}
			vaccinations = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trace := &models.Trace{
		PublicID:     pet.PublicID,
		Name:         pet.Name,
		Species:      pet.Species,
		Breed:        pet.Breed,
		LedgerID:     pet.LedgerID,
		Vaccinations: summarizeVaccinations(vaccinations),
	}
	if owner != nil {
		trace.OwnerName = models.MaskOwnerName(owner.Name)
	}
	return trace, nil
}

// summarizeVaccinations keeps the latest entry per vaccine type, newest first.
func summarizeVaccinations(in []models.Vaccination) []models.Vaccination {
	latest := make(map[string]models.Vaccination, len(in))
	for _, v := range in {
		if cur, ok := latest[v.VaccineType]; !ok || v.LastGivenAt.After(cur.LastGivenAt) {
			latest[v.VaccineType] = v
		}
	}
	out := make([]models.Vaccination, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b models.Vaccination) int {
		if c := b.LastGivenAt.Compare(a.LastGivenAt); c != 0 {
			return c
		}
		return cmp.Compare(a.VaccineType, b.VaccineType)
	})
	return out
}

