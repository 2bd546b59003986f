package domain

import "time"

// StatusEvent is the message broadcast after a transition commits.
type StatusEvent struct {
	OrderID       string               `json:"orderId"`
	Status        Status               `json:"status"`
	UpdatedAt     time.Time            `json:"updatedAt"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory"`
}

// EventFromOrder builds the broadcast payload for a freshly committed order.
func EventFromOrder(o *Order) StatusEvent {
	return StatusEvent{
		OrderID:       o.ID,
		Status:        o.Status,
		UpdatedAt:     o.UpdatedAt,
		StatusHistory: o.StatusHistory,
	}
}
