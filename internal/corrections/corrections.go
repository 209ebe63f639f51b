package corrections

import (
	"log/slog"

	"petidentity/internal/corrections/handler"
	"petidentity/internal/corrections/service"
	"petidentity/pkg/platform/tx"
)

// Service reviews owner-submitted pet corrections.
type Service = service.Service

type Handler = handler.Handler

func NewService(store service.Store, runner tx.Runner, pets service.Pets, l service.Ledger, access service.AccessEnsurer, opts ...service.Option) (*Service, error) {
	return service.New(store, runner, pets, l, access, opts...)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
