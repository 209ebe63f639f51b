package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"petidentity/internal/medical/models"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	records map[int64]*models.MedicalRecord
	nextID  int64
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[int64]*models.MedicalRecord)}
}

func (s *InMemory) Create(_ context.Context, r *models.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	stored := *r
	s.records[r.ID] = &stored
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.MedicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *r
	return &found, nil
}

func (s *InMemory) ListByPet(_ context.Context, petID int64) ([]*models.MedicalRecord, error) {
	return s.filter(func(r *models.MedicalRecord) bool { return r.PetID == petID }), nil
}

func (s *InMemory) ListPending(_ context.Context, clinicID int64) ([]*models.MedicalRecord, error) {
	return s.filter(func(r *models.MedicalRecord) bool {
		return r.ClinicID == clinicID && r.Status == domain.ReviewPending
	}), nil
}

func (s *InMemory) filter(keep func(*models.MedicalRecord) bool) []*models.MedicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.MedicalRecord
	for _, r := range s.records {
		if keep(r) {
			found := *r
			out = append(out, &found)
		}
	}
	slices.SortFunc(out, func(a, b *models.MedicalRecord) int {
		if c := b.GivenAt.Compare(a.GivenAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (s *InMemory) Resolve(_ context.Context, id int64, review models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Status != domain.ReviewPending {
		return sentinel.ErrInvalidState
	}
	reviewer, at := review.ReviewerID, review.ReviewedAt
	r.Status = review.Status
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &at
	r.ReviewTxRef = review.TxRef
	return nil
}

func (s *InMemory) CountRecords(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}
