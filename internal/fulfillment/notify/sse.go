package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
)

// sseFrame is the JSON body of one orderStatusUpdated frame. Subscribed
// reflects the subscriber's room membership for the event's order; delivery
// itself is not scoped by it.
type sseFrame struct {
	OrderID       string                      `json:"orderId"`
	Status        domain.Status               `json:"status"`
	UpdatedAt     string                      `json:"updatedAt"`
	StatusHistory []domain.StatusHistoryEntry `json:"statusHistory"`
	Subscribed    bool                        `json:"subscribed"`
}

// SSEHandler streams hub events to the client as Server-Sent Events.
//
// GET /events — every committed transition, as `orderStatusUpdated` frames.
// The optional `orderId` query parameter joins that order's room for the
// lifetime of the connection (the join/leave semantics of the real-time
// channel); membership is reported per frame in the `subscribed` field.
func SSEHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		sub := hub.Subscribe()
		defer hub.Unsubscribe(sub)

		if orderID := r.URL.Query().Get("orderId"); orderID != "" {
			sub.Join(orderID)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.C:
				if !ok {
					return
				}
				frame := sseFrame{
					OrderID:       e.OrderID,
					Status:        e.Status,
					UpdatedAt:     e.UpdatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
					StatusHistory: e.StatusHistory,
					Subscribed:    sub.Subscribed(e.OrderID),
				}
				data, err := json.Marshal(frame)
				if err != nil {
					slog.ErrorContext(ctx, "encode sse frame", "order_id", e.OrderID, "error", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: orderStatusUpdated\ndata: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
