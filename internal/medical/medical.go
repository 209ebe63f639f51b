package medical

import (
	"log/slog"

	"petidentity/internal/medical/handler"
	"petidentity/internal/medical/service"
)

// Service records vaccinations against pets and their clinic review.
type Service = service.Service

type Handler = handler.Handler

func NewService(store service.Store, pets service.Pets, l service.Ledger, access service.AccessEnsurer, opts ...service.Option) (*Service, error) {
	return service.New(store, pets, l, access, opts...)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
