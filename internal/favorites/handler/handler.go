package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"culturetrail/internal/catalog"
	"culturetrail/internal/transport/http/shared"
	id "culturetrail/pkg/domain"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/requestcontext"
)

// Service is the favorites surface the handler delegates to.
type Service interface {
	List(ctx context.Context, userID id.UserID) ([]catalog.Site, error)
	Add(ctx context.Context, userID id.UserID, siteID id.SiteID) error
	Remove(ctx context.Context, userID id.UserID, siteID id.SiteID) error
}

// Handler serves the /favorites routes.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts favorites routes on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/favorites", h.handleList)
	r.Put("/favorites/{siteID}", h.handleAdd)
	r.Delete("/favorites/{siteID}", h.handleRemove)
}

type listResponse struct {
	Favorites []catalog.Site `json:"favorites"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	sites, err := h.service.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list favorites",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if sites == nil {
		sites = []catalog.Site{}
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Favorites: sites})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	siteID, err := id.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "site id is required"))
		return
	}

	if err := h.service.Add(ctx, userID, siteID); err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to add favorite",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", userID,
				"site_id", siteID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	siteID, err := id.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "site id is required"))
		return
	}

	if err := h.service.Remove(ctx, userID, siteID); err != nil {
		h.logger.ErrorContext(ctx, "failed to remove favorite",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"site_id", siteID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
