package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"petidentity/internal/notification/models"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/sentinel"
	"petidentity/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (*models.Notification, error)
}

// Publisher fans a stored notification out to other consumers.
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPublisher enables fan-out after each stored notification.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("notification store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Notify stores a notification for userID. A publish failure is logged and
// does not fail the call once the notification is stored.
func (s *Service) Notify(ctx context.Context, userID int64, title, message string) error {
	if userID <= 0 || strings.TrimSpace(title) == "" {
		return dErrors.New(dErrors.CodeValidation, "notification needs a user and a title")
	}
	n := &models.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store notification")
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, n); err != nil {
			s.logger.WarnContext(ctx, "notification publish failed",
				"notification_id", n.ID, "user_id", userID, "error", err)
		}
	}
	return nil
}

// List returns userID's notifications, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]*models.Notification, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return items, nil
}

// MarkRead marks one of userID's notifications as read. Notifications owned by
// someone else are reported as missing.
func (s *Service) MarkRead(ctx context.Context, userID, id int64) (*models.Notification, error) {
	n, err := s.store.MarkRead(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notification")
	}
	return n, nil
}

// Notifier adapts the service for orchestrators, which only log delivery
// failures.
type Notifier struct {
	service *Service
	logger  *slog.Logger
}

func NewNotifier(service *Service, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{service: service, logger: logger}
}

func (n *Notifier) Send(ctx context.Context, userID int64, title, message string) {
	if err := n.service.Notify(ctx, userID, title, message); err != nil {
		n.logger.WarnContext(ctx, "notification not delivered", "user_id", userID, "title", title, "error", err)
	}
}
