package app

import (
	"context"
	"log/slog"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

// roleVisibleStatuses is the read-path counterpart of the capability table:
// the statuses a role's dashboard cares about. Administrators see everything
// (nil set means unfiltered).
var roleVisibleStatuses = map[domain.Role][]domain.Status{
	domain.RoleManager:  {domain.StatusProcessing},
	domain.RoleBaker:    {domain.StatusApproved, domain.StatusBaking, domain.StatusReady},
	domain.RoleDelivery: {domain.StatusReady, domain.StatusShipping, domain.StatusDelivered, domain.StatusCannotDeliver},
}

// OrderListing is one row of a role-scoped dashboard: the order plus a
// denormalized snapshot of the customer's display name and contact.
type OrderListing struct {
	Order    *domain.Order          `json:"order"`
	Customer ports.CustomerSnapshot `json:"customer"`
}

// QueryService is the read path. It never mutates anything.
type QueryService struct {
	repo      ports.Repository
	directory ports.IdentityDirectory // nil-safe: listings ship without decoration
}

// NewQueryService builds the read path. The directory may be nil, in which
// case customer snapshots are left empty.
func NewQueryService(repo ports.Repository, directory ports.IdentityDirectory) *QueryService {
	return &QueryService{repo: repo, directory: directory}
}

// ListForRole returns the orders relevant to the actor's role, newest first,
// decorated with customer snapshots. Customers have no dashboard here.
func (q *QueryService) ListForRole(ctx context.Context, actor domain.Actor) ([]OrderListing, error) {
	var statuses []domain.Status
	switch actor.Role {
	case domain.RoleAdministrator:
		// unfiltered
	case domain.RoleManager, domain.RoleBaker, domain.RoleDelivery:
		statuses = roleVisibleStatuses[actor.Role]
	default:
		return nil, domain.E(domain.KindForbidden, "Bạn không có quyền xem danh sách đơn hàng")
	}

	orders, err := q.repo.ListByStatuses(ctx, statuses)
	if err != nil {
		return nil, err
	}

	listings := make([]OrderListing, len(orders))
	for i, o := range orders {
		listings[i] = OrderListing{Order: o, Customer: q.lookup(ctx, o.CustomerRef)}
	}
	return listings, nil
}

// GetOrder returns a single order subject to role visibility:
// administrators see any order, staff roles see orders in their relevant
// status set, customers see only their own. Anything else reads as NotFound
// so existence is not disclosed.
func (q *QueryService) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	order, err := q.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case domain.RoleAdministrator:
		return order, nil
	case domain.RoleCustomer:
		if order.CustomerRef == actor.UserID {
			return order, nil
		}
	case domain.RoleManager, domain.RoleBaker, domain.RoleDelivery:
		for _, s := range roleVisibleStatuses[actor.Role] {
			if order.Status == s {
				return order, nil
			}
		}
	}
	return nil, domain.E(domain.KindNotFound, "Không tìm thấy đơn hàng")
}

// lookup resolves the customer snapshot, degrading to an empty snapshot when
// the directory is absent or failing. A listing must not fail on decoration.
func (q *QueryService) lookup(ctx context.Context, ref string) ports.CustomerSnapshot {
	if q.directory == nil {
		return ports.CustomerSnapshot{}
	}
	snap, err := q.directory.Customer(ctx, ref)
	if err != nil {
		slog.WarnContext(ctx, "customer snapshot lookup failed", "customer_ref", ref, "error", err)
		return ports.CustomerSnapshot{}
	}
	return snap
}
