package app

import (
	"context"
	"sort"
	"sync"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

// memRepo is an in-memory ports.Repository honoring the conditional-update
// contract, so engine behavior under stale writes can be exercised without
// SQLite.
type memRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	failUpdateWithStale bool // next Update returns ErrStaleStatus
}

var _ ports.Repository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{orders: make(map[string]*domain.Order)}
}

func (r *memRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.E(domain.KindNotFound, "Không tìm thấy đơn hàng")
	}
	return cloneOrder(o), nil
}

func (r *memRepo) ListByStatuses(_ context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[domain.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	var out []*domain.Order
	for _, o := range r.orders {
		if len(statuses) == 0 || want[o.Status] {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) Update(_ context.Context, o *domain.Order, expected domain.Status, entry domain.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failUpdateWithStale {
		r.failUpdateWithStale = false
		return ports.ErrStaleStatus
	}

	stored, ok := r.orders[o.ID]
	if !ok {
		return domain.E(domain.KindNotFound, "Không tìm thấy đơn hàng")
	}
	if stored.Status != expected {
		return ports.ErrStaleStatus
	}

	stored.Status = o.Status
	stored.IsDelivered = o.IsDelivered
	stored.DeliveredAt = o.DeliveredAt
	stored.UpdatedAt = o.UpdatedAt
	stored.StatusHistory = append(stored.StatusHistory, entry)
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.LineItems = append([]domain.LineItem(nil), o.LineItems...)
	c.StatusHistory = append([]domain.StatusHistoryEntry(nil), o.StatusHistory...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}

// captureNotifier records published events.
type captureNotifier struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (n *captureNotifier) Publish(e domain.StatusEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *captureNotifier) Events() []domain.StatusEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.StatusEvent(nil), n.events...)
}

// staticDirectory serves fixed customer snapshots.
type staticDirectory struct {
	snaps map[string]ports.CustomerSnapshot
	err   error
}

func (d *staticDirectory) Customer(_ context.Context, ref string) (ports.CustomerSnapshot, error) {
	if d.err != nil {
		return ports.CustomerSnapshot{}, d.err
	}
	return d.snaps[ref], nil
}
