package ports

import "github.com/ovenline/fulfillment/internal/fulfillment/domain"

// Notifier broadcasts committed transitions to interested observers.
// Publish must not block the caller and must not fail the transition:
// delivery is fire-and-forget and never retried.
type Notifier interface {
	Publish(event domain.StatusEvent)
}
