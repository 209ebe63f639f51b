package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"petidentity/internal/notification/models"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/httputil"
	"petidentity/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context, userID int64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (*models.Notification, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Patch("/notifications/{id}/read", h.handleMarkRead)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	if items == nil {
		items = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(r.Context(), w, dErrors.New(dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	n, err := h.service.MarkRead(r.Context(), requestcontext.UserID(r.Context()), id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "notification request failed", "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
