package store

import (
	"context"
	"sync"
	"time"

	"petidentity/internal/ratelimit/models"
)

type memoryEntry struct {
	record    models.Lockout
	expiresAt time.Time
}

// InMemory keeps lockout records in process memory. Entries past their
// window are treated as absent.
type InMemory struct {
	mu      sync.Mutex
	records map[string]*memoryEntry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*memoryEntry), now: time.Now}
}

func (s *InMemory) Get(_ context.Context, key models.Key) (*models.Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key.String())
	if !ok {
		return nil, nil
	}
	rec := e.record
	return &rec, nil
}

func (s *InMemory) RecordFailure(_ context.Context, key models.Key, at time.Time, window time.Duration) (*models.Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key.String())
	if !ok {
		e = &memoryEntry{}
		s.records[key.String()] = e
	}
	e.record.FailureCount++
	e.record.LastFailureAt = at
	e.expiresAt = s.now().Add(window)
	rec := e.record
	return &rec, nil
}

func (s *InMemory) Lock(_ context.Context, key models.Key, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key.String())
	if !ok {
		e = &memoryEntry{}
		s.records[key.String()] = e
	}
	e.record.LockedUntil = &until
	if until.After(e.expiresAt) {
		e.expiresAt = until
	}
	return nil
}

func (s *InMemory) Clear(_ context.Context, key models.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key.String())
	return nil
}

// live returns the entry for k, dropping it when expired. Callers hold s.mu.
func (s *InMemory) live(k string) (*memoryEntry, bool) {
	e, ok := s.records[k]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.records, k)
		return nil, false
	}
	return e, true
}
