package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/prepline/prepline/internal/availability"
	"github.com/prepline/prepline/internal/inventory"
	"github.com/prepline/prepline/internal/orders"
	"github.com/prepline/prepline/internal/production"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	OrdersHandler       *orders.Handler
	ProductionHandler   *production.Handler
	InventoryHandler    *inventory.Handler
	AvailabilityHandler *availability.Handler
}

// NewRouter constructs the chi.Router with Prepline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/production", params.ProductionHandler.MountRoutes)
	r.Route("/products", params.InventoryHandler.MountRoutes)
	r.Route("/availability", params.AvailabilityHandler.MountRoutes)

	return r
}
