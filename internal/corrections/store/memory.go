package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"petidentity/internal/corrections/models"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	items  map[int64]*models.CorrectionRequest
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[int64]*models.CorrectionRequest)}
}

func (s *InMemory) Create(_ context.Context, c *models.CorrectionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	stored := *c
	s.items[c.ID] = &stored
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.CorrectionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *c
	return &found, nil
}

func (s *InMemory) List(_ context.Context, status *domain.ReviewStatus) ([]*models.CorrectionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CorrectionRequest
	for _, c := range s.items {
		if status != nil && c.Status != *status {
			continue
		}
		found := *c
		out = append(out, &found)
	}
	slices.SortFunc(out, func(a, b *models.CorrectionRequest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *InMemory) Resolve(_ context.Context, id int64, r models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status != domain.ReviewPending {
		return sentinel.ErrInvalidState
	}
	reviewer, at := r.ReviewerID, r.ReviewedAt
	c.Status = r.Status
	c.ReviewedBy = &reviewer
	c.ReviewedAt = &at
	c.ReviewReason = r.Reason
	c.TxRef = r.TxRef
	return nil
}
