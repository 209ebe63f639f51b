package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"petidentity/internal/notification/models"
	"petidentity/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	items  map[int64]*models.Notification
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[int64]*models.Notification)}
}

func (s *InMemory) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.ID = s.nextID
	stored := *n
	s.items[n.ID] = &stored
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID int64) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Notification
	for _, n := range s.items {
		if n.UserID == userID {
			found := *n
			out = append(out, &found)
		}
	}
	slices.SortFunc(out, func(a, b *models.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *InMemory) MarkRead(_ context.Context, userID, id int64) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	n.IsRead = true
	found := *n
	return &found, nil
}
