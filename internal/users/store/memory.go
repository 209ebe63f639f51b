package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"petidentity/internal/users/models"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
)

// InMemory is a process-local user store for tests and database-less runs.
type InMemory struct {
	mu      sync.RWMutex
	users   map[int64]*models.User
	byEmail map[string]int64
	nextID  int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[int64]*models.User),
		byEmail: make(map[string]int64),
	}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return sentinel.ErrConflict
	}
	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[email] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *s.users[id]
	return &found, nil
}

func (s *InMemory) List(_ context.Context, role *domain.Role) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if role != nil && u.Role != *role {
			continue
		}
		found := *u
		out = append(out, &found)
	}
	slices.SortFunc(out, func(a, b *models.User) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *InMemory) BindWallet(_ context.Context, id int64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if u.WalletAddress != nil {
		if strings.EqualFold(*u.WalletAddress, address) {
			return nil
		}
		return sentinel.ErrConflict
	}
	u.WalletAddress = &address
	return nil
}
