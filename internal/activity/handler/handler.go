package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"culturetrail/internal/activity"
	"culturetrail/internal/transport/http/shared"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/requestcontext"
)

// feedLimit caps the public feed response.
const feedLimit = 20

// Handler serves GET /activity.
type Handler struct {
	store  activity.Store
	logger *slog.Logger
}

func New(store activity.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the activity route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/activity", h.handleFeed)
}

type feedResponse struct {
	Events []activity.Event `json:"events"`
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.store.ListRecent(ctx, feedLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load activity feed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load activity feed"))
		return
	}
	if events == nil {
		events = []activity.Event{}
	}
	shared.WriteJSON(w, http.StatusOK, feedResponse{Events: events})
}
