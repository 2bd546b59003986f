package notify

import (
	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

// Fanout composes several notifiers into one. Nil members are skipped, so
// optional sinks (e.g. Kafka without brokers) can be passed unconditionally.
type Fanout []ports.Notifier

var _ ports.Notifier = (Fanout)(nil)

// Publish forwards the event to every non-nil member.
func (f Fanout) Publish(e domain.StatusEvent) {
	for _, n := range f {
		if n != nil {
			n.Publish(e)
		}
	}
}
