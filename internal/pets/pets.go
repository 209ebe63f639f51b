package pets

import (
	"log/slog"

	"petidentity/internal/pets/handler"
	"petidentity/internal/pets/service"
	"petidentity/pkg/platform/tx"
)

// Service orchestrates pet registration, transfer and correction requests.
type Service = service.Service

type Handler = handler.Handler

func NewService(store service.Store, runner tx.Runner, resolver service.Resolver, users service.UserDirectory, corrections service.CorrectionStore, opts ...service.Option) (*Service, error) {
	return service.New(store, runner, resolver, users, corrections, opts...)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
