// Package ports declares the interfaces the fulfillment core depends on.
// The application layer is written against these abstractions so storage,
// identity lookup and broadcasting can be swapped (SQLite vs in-memory in
// tests, live hub vs capture fake, and so on).
package ports

import (
	"context"
	"errors"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
)

// ErrStaleStatus is returned by Repository.Update when the conditional write
// finds that the persisted status no longer equals the expected precondition,
// i.e. a concurrent transition won the race. The engine maps it to
// InvalidTransition for the losing caller.
var ErrStaleStatus = errors.New("order status changed concurrently")

// Repository persists the order aggregate together with its append-only
// status history.
type Repository interface {
	// Create inserts a new order with an empty history. The id must not
	// already exist.
	Create(ctx context.Context, o *domain.Order) error

	// Get loads one order including its full status history, in commit
	// order. Unknown ids yield a NotFound domain error.
	Get(ctx context.Context, id string) (*domain.Order, error)

	// ListByStatuses returns orders whose status is in the given set,
	// sorted by CreatedAt descending. An empty set means all orders.
	ListByStatuses(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error)

	// Update commits one transition: it writes the order's status, derived
	// delivered fields and UpdatedAt, and appends entry to the history, all
	// in a single transaction conditional on the persisted status still
	// equalling expected. It returns ErrStaleStatus when the condition
	// fails and nothing was written.
	Update(ctx context.Context, o *domain.Order, expected domain.Status, entry domain.StatusHistoryEntry) error
}
