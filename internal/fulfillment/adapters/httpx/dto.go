package httpx

import (
	"time"

	"github.com/ovenline/fulfillment/internal/fulfillment/app"
	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

type CreateOrderRequest struct {
	CustomerRef     string        `json:"customerRef"`
	LineItems       []LineItemDTO `json:"lineItems"`
	ShippingAddress string        `json:"shippingAddress"`
	PaymentMethod   string        `json:"paymentMethod"`
	TotalPrice      float64       `json:"totalPrice"`
	IsPaid          bool          `json:"isPaid"`
	PaidAt          *time.Time    `json:"paidAt,omitempty"`
}

type LineItemDTO struct {
	ProductRef        string  `json:"productRef"`
	NameSnapshot      string  `json:"nameSnapshot"`
	UnitPriceSnapshot float64 `json:"unitPriceSnapshot"`
	Quantity          int     `json:"quantity"`
	Size              string  `json:"size,omitempty"`
	Flavor            string  `json:"flavor,omitempty"`
}

type ForceStatusRequest struct {
	Status string `json:"status"`
}

type OrderResponse struct {
	ID              string                      `json:"id"`
	CustomerRef     string                      `json:"customerRef"`
	LineItems       []LineItemDTO               `json:"lineItems"`
	ShippingAddress string                      `json:"shippingAddress"`
	PaymentMethod   string                      `json:"paymentMethod"`
	TotalPrice      float64                     `json:"totalPrice"`
	IsPaid          bool                        `json:"isPaid"`
	PaidAt          *time.Time                  `json:"paidAt,omitempty"`
	Status          string                      `json:"status"`
	IsDelivered     bool                        `json:"isDelivered"`
	DeliveredAt     *time.Time                  `json:"deliveredAt,omitempty"`
	StatusHistory   []domain.StatusHistoryEntry `json:"statusHistory"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

type OrderListingResponse struct {
	OrderResponse
	Customer ports.CustomerSnapshot `json:"customer"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapLineItems(items []domain.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, len(items))
	for i, it := range items {
		out[i] = LineItemDTO{
			ProductRef:        it.ProductRef,
			NameSnapshot:      it.NameSnapshot,
			UnitPriceSnapshot: it.UnitPriceSnapshot,
			Quantity:          it.Quantity,
			Size:              it.Size,
			Flavor:            it.Flavor,
		}
	}
	return out
}

func mapOrderToResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		CustomerRef:     o.CustomerRef,
		LineItems:       mapLineItems(o.LineItems),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		TotalPrice:      o.TotalPrice,
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		Status:          string(o.Status),
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		StatusHistory:   o.StatusHistory,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func mapListings(listings []app.OrderListing) []OrderListingResponse {
	out := make([]OrderListingResponse, len(listings))
	for i, l := range listings {
		out[i] = OrderListingResponse{
			OrderResponse: mapOrderToResponse(l.Order),
			Customer:      l.Customer,
		}
	}
	return out
}
