package users

import (
	"log/slog"

	"petidentity/internal/users/handler"
	"petidentity/internal/users/service"
)

// Service exposes account and admin user orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the user service.
type Handler = handler.Handler

// NewService constructs the user service with required dependencies.
func NewService(store service.Store, tokens service.TokenIssuer, opts ...service.Option) (*Service, error) {
	return service.New(store, tokens, opts...)
}

// NewHandler constructs an HTTP handler for auth, profile and admin routes.
func NewHandler(s *Service, logger *slog.Logger, opts ...handler.Option) *Handler {
	return handler.New(s, logger, opts...)
}

// WithLoginGuard enables sign-in lockout on the login route.
var WithLoginGuard = handler.WithLoginGuard
