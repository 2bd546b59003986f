package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
)

var (
	manager  = domain.Actor{UserID: "u-mgr", Role: domain.RoleManager}
	baker    = domain.Actor{UserID: "u-bkr", Role: domain.RoleBaker}
	delivery = domain.Actor{UserID: "u-dlv", Role: domain.RoleDelivery}
	admin    = domain.Actor{UserID: "u-adm", Role: domain.RoleAdministrator}
	customer = domain.Actor{UserID: "cust-1", Role: domain.RoleCustomer}
)

// testClock hands out strictly increasing timestamps.
func testClock() func() time.Time {
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestEngine(t *testing.T) (*Engine, *memRepo, *captureNotifier) {
	t.Helper()
	repo := newMemRepo()
	notifier := &captureNotifier{}
	engine := NewEngine(repo, notifier, WithClock(testClock()))
	return engine, repo, notifier
}

func createOrder(t *testing.T, e *Engine) *domain.Order {
	t.Helper()
	o, err := e.CreateOrder(context.Background(), domain.NewOrderInput{
		CustomerRef: "cust-1",
		LineItems: []domain.LineItem{
			{ProductRef: "p-1", NameSnapshot: "Bánh bông lan trứng muối", UnitPriceSnapshot: 180000, Quantity: 2},
		},
		TotalPrice: 360000,
		IsPaid:     true,
	})
	require.NoError(t, err)
	return o
}

func TestApproveTransition(t *testing.T) {
	engine, _, notifier := newTestEngine(t)
	o := createOrder(t, engine)

	updated, err := engine.Execute(context.Background(), o.ID, domain.OpApprove, manager)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusApproved, updated.Status)
	require.Len(t, updated.StatusHistory, 1)
	assert.Equal(t, "Đơn hàng đã được duyệt", updated.StatusHistory[0].Note)
	assert.Equal(t, manager, updated.StatusHistory[0].Actor)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, o.ID, events[0].OrderID)
	assert.Equal(t, domain.StatusApproved, events[0].Status)
	assert.Len(t, events[0].StatusHistory, 1)
}

func TestRepeatedTransitionFailsWithoutMutation(t *testing.T) {
	engine, repo, notifier := newTestEngine(t)
	o := createOrder(t, engine)
	ctx := context.Background()

	_, err := engine.Execute(ctx, o.ID, domain.OpApprove, manager)
	require.NoError(t, err)
	_, err = engine.Execute(ctx, o.ID, domain.OpStartBaking, baker)
	require.NoError(t, err)

	_, err = engine.Execute(ctx, o.ID, domain.OpStartBaking, baker)
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
	assert.Equal(t, "Chỉ có thể bắt đầu làm bánh cho đơn hàng đã được duyệt", err.Error())

	stored, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBaking, stored.Status)
	assert.Len(t, stored.StatusHistory, 2)
	assert.Len(t, notifier.Events(), 2)
}

func TestFullDeliveryPath(t *testing.T) {
	engine, repo, _ := newTestEngine(t)
	o := createOrder(t, engine)
	ctx := context.Background()

	for _, step := range []struct {
		op    domain.Operation
		actor domain.Actor
	}{
		{domain.OpApprove, manager},
		{domain.OpStartBaking, baker},
		{domain.OpCompleteBaking, baker},
	} {
		_, err := engine.Execute(ctx, o.ID, step.op, step.actor)
		require.NoError(t, err)
	}

	ready, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReady, ready.Status)
	base := len(ready.StatusHistory)

	_, err = engine.Execute(ctx, o.ID, domain.OpStartShipping, delivery)
	require.NoError(t, err)
	updated, err := engine.Execute(ctx, o.ID, domain.OpMarkDelivered, delivery)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDelivered, updated.Status)
	assert.True(t, updated.IsDelivered)
	require.NotNil(t, updated.DeliveredAt)
	assert.Len(t, updated.StatusHistory, base+2)
}

func TestForbiddenRoleDoesNotMutate(t *testing.T) {
	engine, repo, notifier := newTestEngine(t)
	o := createOrder(t, engine)
	ctx := context.Background()

	_, err := engine.Execute(ctx, o.ID, domain.OpApprove, customer)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	stored, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
	assert.Empty(t, stored.StatusHistory)
	assert.Empty(t, notifier.Events())
}

func TestForbiddenBeforeExistenceCheck(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	// Same Forbidden error whether or not the order exists.
	_, err := engine.Execute(context.Background(), "nonexistent-id", domain.OpApprove, customer)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestUnknownOrderNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Execute(context.Background(), "nonexistent-id", domain.OpApprove, manager)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCannotDeliverIsTerminal(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	o := createOrder(t, engine)
	ctx := context.Background()

	for _, step := range []struct {
		op    domain.Operation
		actor domain.Actor
	}{
		{domain.OpApprove, manager},
		{domain.OpStartBaking, baker},
		{domain.OpCompleteBaking, baker},
		{domain.OpStartShipping, delivery},
		{domain.OpMarkCannotDeliver, delivery},
	} {
		_, err := engine.Execute(ctx, o.ID, step.op, step.actor)
		require.NoError(t, err)
	}

	for _, op := range domain.TransitionOperations() {
		_, err := engine.Execute(ctx, o.ID, op, admin)
		require.Error(t, err, "op %s", op)
		assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
	}
}

func TestStaleWriteSurfacesAsInvalidTransition(t *testing.T) {
	engine, repo, notifier := newTestEngine(t)
	o := createOrder(t, engine)

	repo.failUpdateWithStale = true
	_, err := engine.Execute(context.Background(), o.ID, domain.OpApprove, manager)
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
	assert.Empty(t, notifier.Events())
}

func TestForceSetStatus(t *testing.T) {
	engine, _, notifier := newTestEngine(t)
	o := createOrder(t, engine)
	ctx := context.Background()

	updated, err := engine.ForceSetStatus(ctx, o.ID, "shipping", admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipping, updated.Status)
	require.Len(t, updated.StatusHistory, 1)
	assert.Len(t, notifier.Events(), 1)

	// Non-administrators are rejected regardless of target.
	_, err = engine.ForceSetStatus(ctx, o.ID, "delivered", manager)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	// Unknown status strings are a validation error, not a transition error.
	_, err = engine.ForceSetStatus(ctx, o.ID, "shipped", admin)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestEngineWithoutNotifier(t *testing.T) {
	repo := newMemRepo()
	engine := NewEngine(repo, nil, WithClock(testClock()))
	o := createOrder(t, engine)

	_, err := engine.Execute(context.Background(), o.ID, domain.OpApprove, manager)
	require.NoError(t, err)
}
