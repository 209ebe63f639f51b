package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"petidentity/internal/platform/middleware"
	"petidentity/internal/users/models"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/httputil"
	"petidentity/pkg/requestcontext"
)

// Service defines the user operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	BindWallet(ctx context.Context, userID int64, address string) (*models.User, error)
	ListUsers(ctx context.Context, role string) ([]*models.User, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// LoginGuard throttles repeated failed sign-ins.
type LoginGuard interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string)
	Clear(ctx context.Context, email, ip string)
}

// Handler serves authentication, profile and admin user endpoints.
type Handler struct {
	service Service
	guard   LoginGuard
	logger  *slog.Logger
}

type Option func(*Handler)

// WithLoginGuard enables sign-in lockout.
func WithLoginGuard(g LoginGuard) Option {
	return func(h *Handler) {
		h.guard = g
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// Register mounts routes that require an authenticated principal.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Put("/me/wallet", h.handleBindWallet)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, domain.RoleAdmin))
		r.Get("/admin/users", h.handleListUsers)
		r.Get("/admin/stats", h.handleStats)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	ip := clientIP(r)
	if h.guard != nil {
		if err := h.guard.Check(r.Context(), req.Email, ip); err != nil {
			var locked interface{ RetryAfterSeconds() int }
			if errors.As(err, &locked) {
				w.Header().Set("Retry-After", strconv.Itoa(locked.RetryAfterSeconds()))
			}
			h.writeError(r.Context(), w, err)
			return
		}
	}
	res, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if h.guard != nil && dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.guard.RecordFailure(r.Context(), req.Email, ip)
		}
		h.writeError(r.Context(), w, err)
		return
	}
	if h.guard != nil {
		h.guard.Clear(r.Context(), req.Email, ip)
	}
	httputil.WriteJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(res.ExpiresIn.Seconds()),
		User:        models.ToResponse(res.User),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.FindByID(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(user))
}

func (h *Handler) handleBindWallet(w http.ResponseWriter, r *http.Request) {
	var req models.BindWalletRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	user, err := h.service.BindWallet(r.Context(), requestcontext.UserID(r.Context()), req.WalletAddress)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(user))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, models.ToResponse(u))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "user request failed", "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, "user request rejected", "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}

// clientIP is the request's remote host, already rewritten by the RealIP
// middleware when a proxy header is present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
