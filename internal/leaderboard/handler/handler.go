package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"culturetrail/internal/leaderboard"
	"culturetrail/internal/transport/http/shared"
	"culturetrail/pkg/requestcontext"
)

// Service is the board read the handler delegates to.
type Service interface {
	Monthly(ctx context.Context) (leaderboard.Board, error)
}

// Handler serves GET /leaderboard. The route is public; entries carry display
// names only.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the leaderboard route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/leaderboard", h.handleBoard)
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	board, err := h.service.Monthly(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build leaderboard",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, board)
}
