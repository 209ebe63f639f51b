package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"petidentity/internal/fingerprint"
	"petidentity/internal/pets/models"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
)

type InMemory struct {
	mu            sync.RWMutex
	pets          map[int64]*models.Pet
	byPublicID    map[string]int64
	history       map[int64]*models.OwnershipRecord
	nextPetID     int64
	nextHistoryID int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		pets:       make(map[int64]*models.Pet),
		byPublicID: make(map[string]int64),
		history:    make(map[int64]*models.OwnershipRecord),
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byPublicID[p.PublicID]; taken {
		return sentinel.ErrConflict
	}
	s.nextPetID++
	p.ID = s.nextPetID
	s.pets[p.ID] = clonePet(p)
	s.byPublicID[p.PublicID] = p.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePet(p), nil
}

func (s *InMemory) FindByPublicID(_ context.Context, publicID string) (*models.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPublicID[publicID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePet(s.pets[id]), nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*models.Pet
	for _, p := range s.pets {
		if filter.OwnerID != nil && p.OwnerID != *filter.OwnerID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.PublicID), search) {
			continue
		}
		out = append(out, clonePet(p))
	}
	slices.SortFunc(out, func(a, b *models.Pet) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *InMemory) LinkLedger(_ context.Context, petID, ledgerID int64, fp fingerprint.Fingerprint, txRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pets[petID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.LedgerID = &ledgerID
	p.Fingerprint = fp
	if txRef != "" {
		p.TxRef = txRef
	}
	return nil
}

func (s *InMemory) UpdateDetails(_ context.Context, in *models.Pet, prev models.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pets[in.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.Revision() != prev {
		return sentinel.ErrConflict
	}
	p.Name = in.Name
	p.Species = in.Species
	p.Breed = in.Breed
	p.BirthDate = in.BirthDate
	p.Age = in.Age
	p.Color = in.Color
	p.PhysicalMark = in.PhysicalMark
	if in.LedgerID != nil {
		id := *in.LedgerID
		p.LedgerID = &id
	}
	p.Fingerprint = in.Fingerprint
	p.TxRef = in.TxRef
	p.UpdatedAt = in.UpdatedAt
	return nil
}

func (s *InMemory) SetStatus(_ context.Context, petID int64, status domain.PetStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pets[petID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Status = status
	return nil
}

func (s *InMemory) SetOwner(_ context.Context, petID, ownerID int64, status domain.PetStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pets[petID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.OwnerID = ownerID
	p.Status = status
	return nil
}

func (s *InMemory) CountPets(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.pets)), nil
}

func (s *InMemory) CreateTransfer(_ context.Context, r *models.OwnershipRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.history {
		if h.PetID == r.PetID && h.Pending() {
			return sentinel.ErrConflict
		}
	}
	s.nextHistoryID++
	r.ID = s.nextHistoryID
	stored := *r
	s.history[r.ID] = &stored
	return nil
}

func (s *InMemory) FindPendingTransfer(_ context.Context, petID int64) (*models.OwnershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.history {
		if h.PetID == petID && h.Pending() {
			found := *h
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) CompleteTransfer(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.history[id]
	if !ok || !h.Pending() {
		return sentinel.ErrNotFound
	}
	h.TransferredAt = &at
	return nil
}

func (s *InMemory) ListHistory(_ context.Context, petID int64) ([]*models.OwnershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.OwnershipRecord
	for _, h := range s.history {
		if h.PetID == petID {
			found := *h
			out = append(out, &found)
		}
	}
	slices.SortFunc(out, func(a, b *models.OwnershipRecord) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *InMemory) CountCompletedTransfers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, h := range s.history {
		if !h.Pending() {
			n++
		}
	}
	return n, nil
}

func clonePet(p *models.Pet) *models.Pet {
	c := *p
	if p.LedgerID != nil {
		id := *p.LedgerID
		c.LedgerID = &id
	}
	return &c
}
