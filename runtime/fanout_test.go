package runtime

import (
	"chat-live/domain"
	"chat-live/domain/event"
	"context"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"log/slog"
	"testing"
	"time"
)

type failingSink struct{}

func (failingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	return context.DeadlineExceeded
}

// blockingSink only returns once its context is done.
type blockingSink struct{}

func (blockingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestFanout_Bounds_Blocking_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := &Sink{}
	registry.Register(1, blockingSink{})
	registry.Register(2, sink)
	registry.Subscribe(1, 4)
	registry.Subscribe(2, 4)
	fanout := NewFanout(slog.Default(), registry, 20*time.Millisecond)

	// When one handle never accepts the event
	start := time.Now()
	delivered := fanout.Broadcast(context.Background(), 4, event.RoomJoined{RoomID: 4})

	// Then it is given up after the sink timeout and the other one is served
	req.Less(time.Since(start), time.Second)
	req.Equal(1, delivered)
	req.Len(sink.Events(), 1)
}

func TestFanout_Broadcast_Excludes_And_Counts(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	alice, bob := &Sink{}, &Sink{}
	registry.Register(1, alice)
	registry.Register(2, bob)
	registry.Register(3, &failingSink{})
	for _, id := range []domain.UserID{1, 2, 3} {
		registry.Subscribe(id, 5)
	}
	fanout := NewFanout(log, registry, time.Second)

	// When user 1 types in room 5
	evt := event.UserTyping{UserID: 1, Nickname: "alice", RoomID: 5, IsTyping: true}
	delivered := fanout.Broadcast(context.Background(), 5, evt, 1)

	// Then only bob received it, the failing handle is skipped
	req.Equal(1, delivered)
	req.Empty(alice.Events())
	req.Equal([]event.DomainEvent{evt}, bob.Events())
}

func TestFanout_Preserves_Order_Per_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := &Sink{}
	registry.Register(1, sink)
	registry.Subscribe(1, 9)
	fanout := NewFanout(slog.Default(), registry, time.Second)

	for i := 1; i <= 20; i++ {
		fanout.Broadcast(context.Background(), 9, event.NewMessage{ID: domain.MessageID(i), RoomID: 9})
	}

	events := sink.Events()
	req.Len(events, 20)
	for i, e := range events {
		req.Equal(domain.MessageID(i+1), e.(event.NewMessage).ID)
	}
}
