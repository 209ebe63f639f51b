package notification

import (
	"log/slog"

	"petidentity/internal/notification/handler"
	"petidentity/internal/notification/service"
)

// Service persists notifications and fans them out.
type Service = service.Service

type Handler = handler.Handler

func NewService(store service.Store, opts ...service.Option) (*Service, error) {
	return service.New(store, opts...)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}

// Notifier lets other modules notify users without handling delivery errors.
type Notifier = service.Notifier

func NewNotifier(s *Service, logger *slog.Logger) *Notifier {
	return service.NewNotifier(s, logger)
}
