package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"culturetrail/internal/catalog"
	"culturetrail/internal/checkin"
	"culturetrail/internal/geo"
	"culturetrail/internal/transport/http/shared"
	id "culturetrail/pkg/domain"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/requestcontext"
)

// Service defines the check-in operation the handler delegates to.
type Service interface {
	CheckIn(ctx context.Context, userID id.UserID, loc geo.Coordinate) (checkin.CheckInResult, error)
}

// Handler serves POST /checkin.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the check-in route on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Post("/checkin", h.handleCheckIn)
}

type checkInRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type checkInResponse struct {
	Success  bool                  `json:"success"`
	NewVisit bool                  `json:"newVisit"`
	Site     *siteView             `json:"site,omitempty"`
	Badges   *checkin.BadgeSummary `json:"badges,omitempty"`
}

type noNearbyResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	NearbyRequired bool   `json:"nearbyRequired"`
}

type siteView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	District string          `json:"district,omitempty"`
	Location *geo.Coordinate `json:"coordinates,omitempty"`
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		// RequireAuth should make this unreachable.
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Lat == nil || req.Lng == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidCoordinate, "lat and lng are required"))
		return
	}

	result, err := h.service.CheckIn(ctx, userID, geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInvalidCoordinate) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "check-in failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeStorage, "failed to record check-in"))
		return
	}

	if !result.Success {
		shared.WriteJSON(w, http.StatusOK, noNearbyResponse{
			Success:        false,
			Message:        "no cultural site within check-in range",
			NearbyRequired: true,
		})
		return
	}

	shared.WriteJSON(w, http.StatusOK, checkInResponse{
		Success:  true,
		NewVisit: result.NewVisit,
		Site:     toSiteView(result.Site),
		Badges:   result.Badges,
	})
}

func toSiteView(site *catalog.Site) *siteView {
	if site == nil {
		return nil
	}
	return &siteView{
		ID:       site.ID.String(),
		Name:     site.Name,
		Category: site.Category,
		District: site.District,
		Location: site.Coordinate,
	}
}
