// Package notify implements the real-time notifier: an in-process hub that
// fans committed transitions out to connected subscribers, an SSE transport
// on top of it, and an optional Kafka sink for downstream consumers.
package notify

import (
	"sync"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

// subscriberBuffer is the per-subscriber event queue depth. A subscriber
// that falls this far behind starts losing events rather than slowing the
// commit path.
const subscriberBuffer = 16

// Subscriber is one connected observer. Events arrive on C until
// Unsubscribe; a slow subscriber is skipped, never waited on.
type Subscriber struct {
	C chan domain.StatusEvent

	mu     sync.Mutex
	orders map[string]struct{}
}

// Join registers interest in a specific order.
func (s *Subscriber) Join(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[orderID] = struct{}{}
}

// Leave withdraws interest in a specific order.
func (s *Subscriber) Leave(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, orderID)
}

// Subscribed reports whether the subscriber joined the given order.
func (s *Subscriber) Subscribed(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.orders[orderID]
	return ok
}

// Hub is the publish/subscribe broadcaster behind ports.Notifier.
//
// Subscribers may join and leave per-order rooms, but Publish deliberately
// broadcasts every event to every connected subscriber regardless of
// membership — the room bookkeeping only annotates delivery (see
// Subscriber.Subscribed). Scoping delivery to rooms would be a one-line
// change here; the broadcast-all behavior is kept on purpose and documented
// in DESIGN.md.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

var _ ports.Notifier = (*Hub)(nil)

// NewHub returns an empty hub ready for subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new subscriber. The caller must Unsubscribe when
// done or the hub will keep (and eventually drop events into) its channel.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{
		C:      make(chan domain.StatusEvent, subscriberBuffer),
		orders: make(map[string]struct{}),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes the subscriber and closes its channel.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	h.mu.Unlock()
	if ok {
		close(s.C)
	}
}

// Publish delivers the event to all connected subscribers. It never blocks:
// a subscriber with a full buffer misses the event. Failed delivery is not
// retried and never fails the transition that produced the event.
func (h *Hub) Publish(e domain.StatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.C <- e:
		default:
			// subscriber too slow, drop
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
