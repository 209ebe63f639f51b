package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	correctionmodels "petidentity/internal/corrections/models"
	"petidentity/internal/pets/models"
	"petidentity/internal/platform/middleware"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/httputil"
	"petidentity/pkg/requestcontext"
)

// Service defines the pet operations exposed over HTTP.
type Service interface {
	CreatePet(ctx context.Context, ownerID int64, req *models.CreatePetRequest) (*models.Pet, error)
	ListPets(ctx context.Context, p requestcontext.Principal, search string) ([]*models.Pet, error)
	GetPet(ctx context.Context, p requestcontext.Principal, id int64) (*models.Pet, error)
	OwnershipHistory(ctx context.Context, p requestcontext.Principal, id int64) ([]*models.OwnershipRecord, error)
	InitiateTransfer(ctx context.Context, ownerID, petID int64, newOwnerEmail string) (*models.OwnershipRecord, error)
	AcceptTransfer(ctx context.Context, newOwnerID, petID int64) (*models.Pet, error)
	RequestCorrection(ctx context.Context, ownerID, petID int64, in *models.CorrectionInput) (*correctionmodels.CorrectionRequest, error)
	Trace(ctx context.Context, publicID string) (*models.Trace, error)
}

// Handler serves pet registration, transfer, correction and trace endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated trace route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/trace/{publicId}", h.handleTrace)
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/pets", h.handleList)
	r.Get("/pets/{id}", h.handleGet)
	r.Get("/pets/{id}/ownership-history", h.handleHistory)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, domain.RoleOwner))
		r.Post("/pets", h.handleCreate)
		r.Post("/pets/{id}/transfer", h.handleInitiateTransfer)
		r.Post("/pets/{id}/transfer/accept", h.handleAcceptTransfer)
		r.Post("/pets/{id}/corrections", h.handleRequestCorrection)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePetRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	pet, err := h.service.CreatePet(r.Context(), requestcontext.UserID(r.Context()), &req)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToResponse(pet))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	principal, _ := requestcontext.PrincipalFrom(r.Context())
	pets, err := h.service.ListPets(r.Context(), principal, r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	out := make([]models.PetResponse, 0, len(pets))
	for _, p := range pets {
		out = append(out, models.ToResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	principal, _ := requestcontext.PrincipalFrom(r.Context())
	pet, err := h.service.GetPet(r.Context(), principal, id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(pet))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	principal, _ := requestcontext.PrincipalFrom(r.Context())
	history, err := h.service.OwnershipHistory(r.Context(), principal, id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	out := make([]models.OwnershipResponse, 0, len(history))
	for _, rec := range history {
		out = append(out, models.ToOwnershipResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	var req models.TransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	record, err := h.service.InitiateTransfer(r.Context(), requestcontext.UserID(r.Context()), id, req.NewOwnerEmail)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToOwnershipResponse(record))
}

func (h *Handler) handleAcceptTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	pet, err := h.service.AcceptTransfer(r.Context(), requestcontext.UserID(r.Context()), id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(pet))
}

func (h *Handler) handleRequestCorrection(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	var req models.CorrectionInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	c, err := h.service.RequestCorrection(r.Context(), requestcontext.UserID(r.Context()), id, &req)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, correctionmodels.ToResponse(c))
}

func (h *Handler) handleTrace(w http.ResponseWriter, r *http.Request) {
	trace, err := h.service.Trace(r.Context(), chi.URLParam(r, "publicId"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trace)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "pet request failed", "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, "pet request rejected", "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
