package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"petidentity/internal/notification/models"
	"petidentity/internal/notification/store"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/requestcontext"
)

type stubPublisher struct {
	published []*models.Notification
	err       error
}

func (p *stubPublisher) Publish(_ context.Context, n *models.Notification) error {
	p.published = append(p.published, n)
	return p.err
}

type NotificationServiceSuite struct {
	suite.Suite
	store     *store.InMemory
	publisher *stubPublisher
	service   *Service
	ctx       context.Context
}

func TestNotificationServiceSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.publisher = &stubPublisher{}
	svc, err := New(s.store,
		WithPublisher(s.publisher),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
	s.service = svc
	s.ctx = context.Background()
}

func (s *NotificationServiceSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *NotificationServiceSuite) TestNotifyStoresAndPublishes() {
	s.Require().NoError(s.service.Notify(s.ctx, 3, "Transfer request", "Rex is waiting for you"))

	items, err := s.service.List(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.False(items[0].IsRead)
	s.Require().Len(s.publisher.published, 1)
	s.Equal(items[0].ID, s.publisher.published[0].ID)
}

func (s *NotificationServiceSuite) TestPublishFailureKeepsNotification() {
	s.publisher.err = errors.New("broker down")

	s.Require().NoError(s.service.Notify(s.ctx, 3, "t", "m"))
	items, err := s.service.List(s.ctx, 3)
	s.Require().NoError(err)
	s.Len(items, 1)
}

func (s *NotificationServiceSuite) TestNotifyValidates() {
	err := s.service.Notify(s.ctx, 0, "t", "m")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *NotificationServiceSuite) TestListNewestFirst() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		ctx := requestcontext.WithTime(s.ctx, base.Add(time.Duration(i)*time.Hour))
		s.Require().NoError(s.service.Notify(ctx, 5, "n", "m"))
	}
	items, err := s.service.List(s.ctx, 5)
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	s.True(items[0].CreatedAt.After(items[1].CreatedAt))
	s.True(items[1].CreatedAt.After(items[2].CreatedAt))
}

func (s *NotificationServiceSuite) TestMarkRead() {
	s.Require().NoError(s.service.Notify(s.ctx, 5, "n", "m"))
	items, _ := s.service.List(s.ctx, 5)

	s.Run("another user's notification is not found", func() {
		_, err := s.service.MarkRead(s.ctx, 6, items[0].ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("owner marks read", func() {
		n, err := s.service.MarkRead(s.ctx, 5, items[0].ID)
		s.Require().NoError(err)
		s.True(n.IsRead)
	})
}

func (s *NotificationServiceSuite) TestNotifierSwallowsErrors() {
	notifier := NewNotifier(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.NotPanics(func() {
		notifier.Send(s.ctx, 0, "", "")
	})
}
