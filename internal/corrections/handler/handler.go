package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"petidentity/internal/corrections/models"
	"petidentity/internal/platform/middleware"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/httputil"
	"petidentity/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context, status string) ([]*models.CorrectionRequest, error)
	Review(ctx context.Context, reviewerID, id int64, approve bool, reason *string) (*models.CorrectionRequest, error)
}

// Handler serves the correction review queue to clinics and administrators.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, domain.RoleClinic, domain.RoleAdmin))
		r.Get("/corrections", h.handleList)
		r.Patch("/corrections/{id}", h.handleReview)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	out := make([]models.CorrectionResponse, 0, len(items))
	for _, c := range items {
		out = append(out, models.ToResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	var req models.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	c, err := h.service.Review(r.Context(), requestcontext.UserID(r.Context()), id, *req.Approve, req.Reason)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(c))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "correction request failed", "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, "correction request rejected", "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
