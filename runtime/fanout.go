package runtime

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/event"
	"chat-live/observability"
	"context"
	"log/slog"
	"time"
)

var _ contract.IFanout = (*Fanout)(nil)

// Fanout delivers one event to every live handle subscribed to a room.
//
// Delivery is best effort: a handle that cannot accept the event is skipped
// and nothing is retried. Handles are served one after the other so that two
// successive broadcasts reach each handle in the same order.
//
// sinkTimeout bounds sinks whose Consume blocks until ctx is done. Websocket
// connections queue without blocking and never reach it.
type Fanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

func NewFanout(log *slog.Logger, registry contract.IRegistry, sinkTimeout time.Duration) *Fanout {
	return &Fanout{log: log, registry: registry, sinkTimeout: sinkTimeout}
}

// Broadcast returns the number of handles that accepted the event.
func (f *Fanout) Broadcast(ctx context.Context, roomID domain.RoomID, e event.DomainEvent, exclude ...domain.UserID) int {
	delivered := 0
	for _, sink := range f.registry.SinksForRoom(roomID, exclude...) {
		if f.deliver(ctx, sink, e) {
			delivered++
		}
	}
	return delivered
}

func (f *Fanout) deliver(ctx context.Context, sink contract.EventSink, e event.DomainEvent) bool {
	sinkCtx, cancel := context.WithTimeout(ctx, f.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, e); err != nil {
		observability.FanoutDrops.WithLabelValues(e.Name()).Inc()
		f.log.Debug("Event not delivered", "event", e.Name(), "error", err)
		return false
	}
	observability.FanoutDeliveries.WithLabelValues(e.Name()).Inc()
	return true
}
