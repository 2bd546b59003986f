// Package app hosts the application services: the transition engine that
// moves orders through the workflow, and the role-scoped query service.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

// TransitionMetrics counts transition outcomes. Implemented by
// internal/pkg/metrics; nil disables counting.
type TransitionMetrics interface {
	ObserveTransition(operation, outcome string)
}

// Engine executes guarded transitions against order aggregates. All status
// mutation in the system flows through it: capability check first, then the
// precondition check, then one conditional read-modify-write, then a
// fire-and-forget broadcast.
type Engine struct {
	repo     ports.Repository
	notifier ports.Notifier // nil-safe: broadcasting skipped if nil
	caps     CapabilityTable
	metrics  TransitionMetrics
	now      func() time.Time
	tracer   trace.Tracer
}

// EngineOption customizes an Engine at construction.
type EngineOption func(*Engine)

// WithClock overrides the engine's time source. Used by tests to pin
// timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches a transition outcome counter.
func WithMetrics(m TransitionMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds the transition engine. The notifier is an explicit
// dependency rather than a process-wide broadcaster so the engine can be
// exercised without a live transport; pass nil to disable broadcasting.
func NewEngine(repo ports.Repository, notifier ports.Notifier, opts ...EngineOption) *Engine {
	e := &Engine{
		repo:     repo,
		notifier: notifier,
		caps:     DefaultCapabilities(),
		now:      func() time.Time { return time.Now().UTC() },
		tracer:   otel.Tracer("fulfillment/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateOrder takes ownership of an already-paid order from the checkout
// collaborator: it persists the aggregate with status processing and an
// empty history. Any authenticated actor may hand over an order.
func (e *Engine) CreateOrder(ctx context.Context, in domain.NewOrderInput) (*domain.Order, error) {
	order, err := domain.NewOrder(uuid.NewString(), in, e.now())
	if err != nil {
		return nil, err
	}
	if err := e.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order accepted for fulfillment",
		"order_id", order.ID, "customer_ref", order.CustomerRef)
	return order, nil
}

// Execute runs one of the seven edge-guarded operations. The capability
// check runs before any order read, so a forbidden caller learns nothing
// about whether the order exists. On success the updated order is returned
// and the committed transition is broadcast.
func (e *Engine) Execute(ctx context.Context, orderID string, op domain.Operation, actor domain.Actor) (*domain.Order, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Execute",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("order.operation", string(op)),
			attribute.String("actor.role", string(actor.Role)),
		))
	defer span.End()

	if !e.caps.Allows(actor.Role, op) {
		e.observe(op, "forbidden")
		return nil, domain.E(domain.KindForbidden, "Bạn không có quyền thực hiện thao tác này")
	}

	order, err := e.repo.Get(ctx, orderID)
	if err != nil {
		e.observe(op, "error")
		return nil, err
	}

	expected := order.Status
	if err := order.Transition(op, actor, e.now()); err != nil {
		e.observe(op, "invalid")
		return nil, err
	}

	if err := e.commit(ctx, order, expected, op); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order transition committed",
		"order_id", order.ID, "operation", op, "status", order.Status,
		"actor_id", actor.UserID, "actor_role", actor.Role)
	e.observe(op, "ok")
	return order, nil
}

// ForceSetStatus is the administrative override: any canonical target
// status, no precondition. It still records an audit entry and applies the
// delivered derived-field rule, and it still goes through the conditional
// write so a concurrent transition cannot be silently overwritten.
func (e *Engine) ForceSetStatus(ctx context.Context, orderID, rawStatus string, actor domain.Actor) (*domain.Order, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ForceSetStatus",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("order.target_status", rawStatus),
		))
	defer span.End()

	if !e.caps.Allows(actor.Role, domain.OpForceSetStatus) {
		e.observe(domain.OpForceSetStatus, "forbidden")
		return nil, domain.E(domain.KindForbidden, "Bạn không có quyền thực hiện thao tác này")
	}

	target, err := domain.ParseStatus(rawStatus)
	if err != nil {
		e.observe(domain.OpForceSetStatus, "invalid")
		return nil, err
	}

	order, err := e.repo.Get(ctx, orderID)
	if err != nil {
		e.observe(domain.OpForceSetStatus, "error")
		return nil, err
	}

	expected := order.Status
	if err := order.ForceStatus(target, actor, e.now()); err != nil {
		e.observe(domain.OpForceSetStatus, "invalid")
		return nil, err
	}

	if err := e.commit(ctx, order, expected, domain.OpForceSetStatus); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order status forced",
		"order_id", order.ID, "status", order.Status, "actor_id", actor.UserID)
	e.observe(domain.OpForceSetStatus, "ok")
	return order, nil
}

// commit persists the in-memory transition conditionally on the status the
// order had when it was read. A stale write means a concurrent transition
// won; the loser gets the same deterministic InvalidTransition it would have
// gotten had it read a moment later.
func (e *Engine) commit(ctx context.Context, order *domain.Order, expected domain.Status, op domain.Operation) error {
	entry := order.LastHistoryEntry()
	if err := e.repo.Update(ctx, order, expected, *entry); err != nil {
		if errors.Is(err, ports.ErrStaleStatus) {
			e.observe(op, "stale")
			return domain.InvalidTransitionError(op)
		}
		e.observe(op, "error")
		return err
	}
	if e.notifier != nil {
		e.notifier.Publish(domain.EventFromOrder(order))
	}
	return nil
}

func (e *Engine) observe(op domain.Operation, outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveTransition(string(op), outcome)
	}
}
