package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

// Topic carrying order status events for downstream consumers (analytics,
// customer notifications). Keyed by order id so per-order ordering holds.
const statusTopic = "order-status-updates"

const publishTimeout = 5 * time.Second

// KafkaSink publishes committed transitions to Kafka. Like every notifier,
// delivery is fire-and-forget: a broker failure is logged, not surfaced, and
// never fails the transition.
type KafkaSink struct {
	writer *kafka.Writer
}

var _ ports.Notifier = (*KafkaSink)(nil)

// NewKafkaSink builds a sink for the given comma-separated broker list.
// It returns nil when no brokers are configured; Fanout skips nil members,
// so the caller can wire it unconditionally.
func NewKafkaSink(brokersCSV string) *KafkaSink {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        statusTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish writes the event asynchronously so the commit path never waits on
// a broker round-trip.
func (k *KafkaSink) Publish(e domain.StatusEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		data, err := json.Marshal(e)
		if err != nil {
			slog.Error("encode status event", "order_id", e.OrderID, "error", err)
			return
		}
		msg := kafka.Message{
			Key:   []byte(e.OrderID),
			Value: data,
			Time:  e.UpdatedAt,
		}
		if err := k.writer.WriteMessages(ctx, msg); err != nil {
			slog.Error("publish status event to kafka", "order_id", e.OrderID, "error", err)
		}
	}()
}

// Close flushes and closes the underlying writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
