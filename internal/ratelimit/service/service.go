package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"petidentity/internal/platform/metrics"
	"petidentity/internal/ratelimit/models"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/requestcontext"
)

// Store persists lockout state. Get returns nil when the key has no live
// record.
type Store interface {
	Get(ctx context.Context, key models.Key) (*models.Lockout, error)
	RecordFailure(ctx context.Context, key models.Key, at time.Time, window time.Duration) (*models.Lockout, error)
	Lock(ctx context.Context, key models.Key, until time.Time) error
	Clear(ctx context.Context, key models.Key) error
}

// Config bounds failed sign-in attempts.
type Config struct {
	// MaxAttempts failures within Window lock the key for LockDuration.
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

func DefaultConfig() Config {
	return Config{MaxAttempts: 5, Window: 15 * time.Minute, LockDuration: 15 * time.Minute}
}

// LockedError is returned by Check while a key is locked.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return "too many failed sign-in attempts"
}

// RetryAfterSeconds rounds the remaining lock time up to whole seconds.
func (e *LockedError) RetryAfterSeconds() int {
	return int((e.RetryAfter + time.Second - 1) / time.Second)
}

// Service locks out an email and IP pair after repeated failed sign-ins.
type Service struct {
	store   Store
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	s := &Service{store: store, config: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check fails with CodeRateLimited, wrapping *LockedError, while the key is
// locked. Store failures do not block sign-in.
func (s *Service) Check(ctx context.Context, email, ip string) error {
	key := models.NewKey(email, ip)
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "lockout check failed", "error", err)
		return nil
	}
	if rec == nil {
		return nil
	}
	now := requestcontext.Now(ctx)
	if rec.IsLockedAt(now) {
		return dErrors.Wrap(&LockedError{RetryAfter: rec.RetryAfter(now)}, dErrors.CodeRateLimited, "too many failed sign-in attempts")
	}
	return nil
}

// RecordFailure counts a failed sign-in and locks the key once the threshold
// is reached.
func (s *Service) RecordFailure(ctx context.Context, email, ip string) {
	key := models.NewKey(email, ip)
	now := requestcontext.Now(ctx)
	rec, err := s.store.RecordFailure(ctx, key, now, s.config.Window)
	if err != nil {
		s.logger.WarnContext(ctx, "recording login failure failed", "error", err)
		return
	}
	if !rec.ShouldLock(s.config.MaxAttempts) {
		return
	}
	rec.ApplyLock(s.config.LockDuration, now)
	if err := s.store.Lock(ctx, key, *rec.LockedUntil); err != nil {
		s.logger.WarnContext(ctx, "applying login lockout failed", "error", err)
		return
	}
	s.metrics.IncrementLoginLockouts()
	s.logger.WarnContext(ctx, "login locked out",
		"email", key.Email,
		"failures", rec.FailureCount,
		"locked_until", rec.LockedUntil,
	)
}

// Clear resets the key after a successful sign-in.
func (s *Service) Clear(ctx context.Context, email, ip string) {
	if err := s.store.Clear(ctx, models.NewKey(email, ip)); err != nil {
		s.logger.WarnContext(ctx, "clearing login failures failed", "error", err)
	}
}

// RetryAfter extracts the remaining lock time from an error returned by Check.
func RetryAfter(err error) (time.Duration, bool) {
	var le *LockedError
	if errors.As(err, &le) {
		return le.RetryAfter, true
	}
	return 0, false
}
