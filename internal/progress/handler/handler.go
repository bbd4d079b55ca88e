package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"culturetrail/internal/progress"
	"culturetrail/internal/transport/http/shared"
	id "culturetrail/pkg/domain"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/requestcontext"
)

// Service is the summary read the handler delegates to.
type Service interface {
	Summary(ctx context.Context, userID id.UserID) (progress.Summary, error)
}

// Handler serves GET /progress.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the progress route on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/progress", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	summary, err := h.service.Summary(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build progress summary",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, summary)
}
