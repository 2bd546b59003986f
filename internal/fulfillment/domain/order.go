package domain

import (
	"strings"
	"time"
)

// Role is the single role carried by an authenticated actor.
type Role string

const (
	RoleManager       Role = "manager"
	RoleBaker         Role = "baker"
	RoleDelivery      Role = "delivery"
	RoleAdministrator Role = "administrator"
	RoleCustomer      Role = "customer"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleManager, RoleBaker, RoleDelivery, RoleAdministrator, RoleCustomer:
		return r, nil
	}
	return "", E(KindValidation, "vai trò không hợp lệ: "+s)
}

// Actor is the authenticated identity invoking an operation. It is supplied
// by the identity collaborator and trusted as-is.
type Actor struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// LineItem is one purchased product line. Name and price are snapshots taken
// at checkout time and are never recomputed here.
type LineItem struct {
	ProductRef        string  `json:"productRef"`
	NameSnapshot      string  `json:"nameSnapshot"`
	UnitPriceSnapshot float64 `json:"unitPriceSnapshot"`
	Quantity          int     `json:"quantity"`
	Size              string  `json:"size,omitempty"`
	Flavor            string  `json:"flavor,omitempty"`
}

// StatusHistoryEntry is one committed transition in the audit trail.
type StatusHistoryEntry struct {
	Status    Status    `json:"status"`
	Actor     Actor     `json:"actor"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is the persisted aggregate: one customer purchase moving through
// fulfillment. Status and StatusHistory are mutated only through Transition
// and ForceStatus.
type Order struct {
	ID              string               `json:"id"`
	CustomerRef     string               `json:"customerRef"`
	LineItems       []LineItem           `json:"lineItems"`
	ShippingAddress string               `json:"shippingAddress"`
	PaymentMethod   string               `json:"paymentMethod"`
	TotalPrice      float64              `json:"totalPrice"`
	IsPaid          bool                 `json:"isPaid"`
	PaidAt          *time.Time           `json:"paidAt,omitempty"`
	Status          Status               `json:"status"`
	IsDelivered     bool                 `json:"isDelivered"`
	DeliveredAt     *time.Time           `json:"deliveredAt,omitempty"`
	StatusHistory   []StatusHistoryEntry `json:"statusHistory"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// NewOrderInput carries the fields the checkout collaborator hands over when
// ownership of a paid order passes to this core.
type NewOrderInput struct {
	CustomerRef     string
	LineItems       []LineItem
	ShippingAddress string
	PaymentMethod   string
	TotalPrice      float64
	IsPaid          bool
	PaidAt          *time.Time
}

// NewOrder builds the aggregate at intake: status processing, empty history.
func NewOrder(id string, in NewOrderInput, now time.Time) (*Order, error) {
	if strings.TrimSpace(in.CustomerRef) == "" {
		return nil, E(KindValidation, "customerRef là bắt buộc")
	}
	if len(in.LineItems) == 0 {
		return nil, E(KindValidation, "đơn hàng phải có ít nhất một sản phẩm")
	}
	for _, it := range in.LineItems {
		if it.ProductRef == "" || it.Quantity <= 0 || it.UnitPriceSnapshot < 0 {
			return nil, E(KindValidation, "sản phẩm trong đơn hàng không hợp lệ")
		}
	}

	return &Order{
		ID:              id,
		CustomerRef:     in.CustomerRef,
		LineItems:       in.LineItems,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TotalPrice:      in.TotalPrice,
		IsPaid:          in.IsPaid,
		PaidAt:          in.PaidAt,
		Status:          StatusProcessing,
		StatusHistory:   []StatusHistoryEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// AppendHistory appends one entry to the audit trail. Existing entries are
// never reordered, merged or removed.
func (o *Order) AppendHistory(e StatusHistoryEntry) {
	o.StatusHistory = append(o.StatusHistory, e)
}

// LastHistoryEntry returns the most recent audit entry, or nil when the
// history is empty.
func (o *Order) LastHistoryEntry() *StatusHistoryEntry {
	if len(o.StatusHistory) == 0 {
		return nil
	}
	return &o.StatusHistory[len(o.StatusHistory)-1]
}

// setStatus applies a status change plus its audit entry and the delivered
// derived-field rule: isDelivered/deliveredAt are set iff the new status is
// delivered.
func (o *Order) setStatus(to Status, actor Actor, now time.Time) {
	o.Status = to
	o.UpdatedAt = now
	if to == StatusDelivered {
		o.IsDelivered = true
		t := now
		o.DeliveredAt = &t
	} else {
		o.IsDelivered = false
		o.DeliveredAt = nil
	}
	o.AppendHistory(StatusHistoryEntry{
		Status:    to,
		Actor:     actor,
		Note:      to.Note(),
		Timestamp: now,
	})
}
