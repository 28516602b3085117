package availability

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/prepline/prepline/internal/platform/httpx"
	"github.com/prepline/prepline/internal/production"
)

// Handler serves the availability report.
type Handler struct {
	logger  *slog.Logger
	service *Service
	group   singleflight.Group
}

// NewHandler constructs the availability handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers availability routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.overview)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	asOf := r.URL.Query().Get("as_of")

	// Concurrent requests for the same day share one computation.
	resultChan := h.group.DoChan("overview:"+asOf, func() (interface{}, error) {
		return h.service.Overview(r.Context(), asOf)
	})
	select {
	case <-r.Context().Done():
		httpx.Problem(w, http.StatusServiceUnavailable, "Request Cancelled", "")
		return
	case res := <-resultChan:
		if res.Err != nil {
			h.respondError(w, res.Err)
			return
		}
		overview, ok := res.Val.(Overview)
		if !ok {
			h.respondError(w, errors.New("availability: unexpected result type"))
			return
		}
		httpx.JSON(w, http.StatusOK, overview.Items)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, production.ErrInvalidDate):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("availability request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
