package relay

import (
	"log/slog"

	"ghostwire/internal/metrics"
)

// Event is the unit the broadcaster operates on: a raw payload and the
// connection it came from. The payload is never parsed.
type Event struct {
	From    ClientID
	Payload string
}

// Broadcaster fans one inbound event out to every other live
// connection. It is content-blind: channel routing, auth and message
// types are a client-side concern.
type Broadcaster struct {
	registry *Registry
}

func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Broadcast enqueues the event payload onto every registered outbound
// queue except the originator's. A full queue marks that target dead:
// it is unregistered and the remaining targets are still attempted.
// The broadcaster never blocks on a slow reader. Returns the number of
// successful deliveries.
func (b *Broadcaster) Broadcast(ev Event) int {
	targets := b.registry.Snapshot(ev.From)

	delivered := 0
	for _, t := range targets {
		select {
		case t.Queue <- ev.Payload:
			delivered++
		default:
			slog.Warn("dropping dead client", "client_id", t.ID, "from", ev.From)
			metrics.DeliveryFailures.Inc()
			b.registry.Unregister(t.ID)
		}
	}

	metrics.MessagesRelayed.Inc()
	return delivered
}
