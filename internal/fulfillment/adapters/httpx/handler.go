// Package httpx exposes the fulfillment workflow over HTTP: role-prefixed
// transition endpoints, role-scoped dashboards, the checkout intake hook and
// the administrative override.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ovenline/fulfillment/internal/fulfillment/adapters/httpx/middlewares"
	"github.com/ovenline/fulfillment/internal/fulfillment/app"
	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
)

// Handler handles incoming HTTP requests for the fulfillment workflow.
type Handler struct {
	engine *app.Engine
	query  *app.QueryService
}

// NewHandler initializes the handler with the transition engine and the
// read-path query service.
func NewHandler(engine *app.Engine, query *app.QueryService) *Handler {
	return &Handler{engine: engine, query: query}
}

// CreateOrder is the checkout collaborator's hand-over point: it persists an
// already-paid order with status processing and an empty history.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := middlewares.ActorFromContext(r.Context()); !ok {
		writeDomainError(w, domain.E(domain.KindUnauthenticated, "thiếu mã xác thực"))
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "nội dung yêu cầu không hợp lệ"))
		return
	}

	items := make([]domain.LineItem, len(req.LineItems))
	for i, it := range req.LineItems {
		items[i] = domain.LineItem{
			ProductRef:        it.ProductRef,
			NameSnapshot:      it.NameSnapshot,
			UnitPriceSnapshot: it.UnitPriceSnapshot,
			Quantity:          it.Quantity,
			Size:              it.Size,
			Flavor:            it.Flavor,
		}
	}

	order, err := h.engine.CreateOrder(r.Context(), domain.NewOrderInput{
		CustomerRef:     req.CustomerRef,
		LineItems:       items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TotalPrice:      req.TotalPrice,
		IsPaid:          req.IsPaid,
		PaidAt:          req.PaidAt,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

// GetOrder retrieves a single order subject to role visibility.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.ActorFromContext(r.Context())
	if !ok {
		writeDomainError(w, domain.E(domain.KindUnauthenticated, "thiếu mã xác thực"))
		return
	}

	order, err := h.query.GetOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// List serves the role-scoped dashboards. The route prefix names the role
// the caller claims; the query service still filters by the actor's actual
// role, so a mismatched prefix is rejected.
func (h *Handler) List(expected domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middlewares.ActorFromContext(r.Context())
		if !ok {
			writeDomainError(w, domain.E(domain.KindUnauthenticated, "thiếu mã xác thực"))
			return
		}
		if actor.Role != expected && actor.Role != domain.RoleAdministrator {
			writeDomainError(w, domain.E(domain.KindForbidden, "Bạn không có quyền xem danh sách đơn hàng"))
			return
		}

		listings, err := h.query.ListForRole(r.Context(), actor)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapListings(listings))
	}
}

// Transition returns the handler for one edge-guarded operation. The role
// check lives in the engine's capability table, not here.
func (h *Handler) Transition(op domain.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middlewares.ActorFromContext(r.Context())
		if !ok {
			writeDomainError(w, domain.E(domain.KindUnauthenticated, "thiếu mã xác thực"))
			return
		}

		order, err := h.engine.Execute(r.Context(), chi.URLParam(r, "id"), op, actor)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapOrderToResponse(order))
	}
}

// ForceStatus is the administrative override endpoint.
func (h *Handler) ForceStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewares.ActorFromContext(r.Context())
	if !ok {
		writeDomainError(w, domain.E(domain.KindUnauthenticated, "thiếu mã xác thực"))
		return
	}

	var req ForceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, domain.E(domain.KindValidation, "nội dung yêu cầu không hợp lệ"))
		return
	}

	order, err := h.engine.ForceSetStatus(r.Context(), chi.URLParam(r, "id"), req.Status, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForKind maps the error taxonomy to HTTP status codes.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeJSON(w, statusForKind(kind), ErrorResponse{
		Error:   string(kind),
		Message: err.Error(),
	})
}

// WriteUnauthenticated is the rejection hook handed to the authenticator
// middleware so its error body matches every other error in the API.
func WriteUnauthenticated(w http.ResponseWriter, message string) {
	writeDomainError(w, domain.E(domain.KindUnauthenticated, message))
}
