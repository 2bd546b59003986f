package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ovenline/fulfillment/internal/fulfillment/adapters/httpx/middlewares"
	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/notify"
	"github.com/ovenline/fulfillment/internal/pkg/metrics"
)

// RouterConfig carries the transport-level dependencies.
type RouterConfig struct {
	Handler *Handler
	Hub     *notify.Hub
	AuthKey []byte
	Metrics *metrics.Metrics // nil disables request metrics
}

// NewRouter wires the full HTTP surface. Everything except /healthz and
// /metrics runs behind the authenticator; the role prefix of each route
// mirrors the dashboard it serves, while the actual authorization decision
// is the engine's capability table.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticator(cfg.AuthKey, WriteUnauthenticated))

		h := cfg.Handler

		// Checkout hand-over and single-order read.
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/{id}", h.GetOrder)

		// Role-scoped dashboards.
		r.Get("/manager/orders", h.List(domain.RoleManager))
		r.Get("/baker/orders", h.List(domain.RoleBaker))
		r.Get("/delivery/orders", h.List(domain.RoleDelivery))
		r.Get("/admin/orders", h.List(domain.RoleAdministrator))

		// Transition operations, one per edge of the workflow.
		r.Put("/manager/orders/{id}/approve", h.Transition(domain.OpApprove))
		r.Put("/manager/orders/{id}/cancel", h.Transition(domain.OpCancel))
		r.Put("/baker/orders/{id}/start-baking", h.Transition(domain.OpStartBaking))
		r.Put("/baker/orders/{id}/complete", h.Transition(domain.OpCompleteBaking))
		r.Put("/delivery/orders/{id}/start-shipping", h.Transition(domain.OpStartShipping))
		r.Put("/delivery/orders/{id}/cannot-deliver", h.Transition(domain.OpMarkCannotDeliver))
		r.Put("/delivery/orders/{id}/delivered", h.Transition(domain.OpMarkDelivered))

		// Administrative override.
		r.Put("/admin/orders/{id}/status", h.ForceStatus)

		// Real-time channel.
		r.Get("/events", notify.SSEHandler(cfg.Hub))
	})

	return r
}
