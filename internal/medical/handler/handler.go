package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"petidentity/internal/medical/models"
	"petidentity/internal/platform/middleware"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/httputil"
	"petidentity/pkg/requestcontext"
)

// Service defines the medical record operations exposed over HTTP.
type Service interface {
	AddRecord(ctx context.Context, clinicID, petID int64, req *models.AddRecordRequest) (*models.MedicalRecord, error)
	ListByPet(ctx context.Context, p requestcontext.Principal, petID int64) ([]*models.MedicalRecord, error)
	ListPending(ctx context.Context, clinicID int64) ([]*models.MedicalRecord, error)
	Review(ctx context.Context, clinicID, recordID int64, verdict string) (*models.MedicalRecord, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/pets/{id}/medical-records", h.handleListByPet)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, domain.RoleClinic))
		r.Post("/pets/{id}/medical-records", h.handleAdd)
		r.Get("/medical-records/pending", h.handleListPending)
		r.Patch("/medical-records/{id}/verify", h.handleReview)
	})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	petID, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	var req models.AddRecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	rec, err := h.service.AddRecord(r.Context(), requestcontext.UserID(r.Context()), petID, &req)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToResponse(rec))
}

func (h *Handler) handleListByPet(w http.ResponseWriter, r *http.Request) {
	petID, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	principal, _ := requestcontext.PrincipalFrom(r.Context())
	records, err := h.service.ListByPet(r.Context(), principal, petID)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeRecords(w, records)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListPending(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeRecords(w, records)
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
	rec, err := h.service.Review(r.Context(), requestcontext.UserID(r.Context()), id, req.Status)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(rec))
}

func writeRecords(w http.ResponseWriter, records []*models.MedicalRecord) {
	out := make([]models.RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, models.ToResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "medical record request failed", "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, "medical record request rejected", "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
