package runtime

import (
	"chat-live/domain"
	"chat-live/domain/event"
	"context"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

// Sink records every event handed to it.
type Sink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Sink) Events() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func TestRegistry_Subscribe_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := domain.UserID(1)
	roomID := domain.RoomID(1)
	sink := &Sink{}

	// Given no user is connected
	// And no room exists
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)

	// When a user connects and subscribes a room
	req.Nil(registry.Register(userID, sink))
	req.True(registry.Subscribe(userID, roomID))

	// Then
	req.Len(registry.Sessions, 1)
	req.Equal(sink, registry.Sessions[userID])

	req.Len(registry.RoomMembers, 1)
	req.Contains(registry.RoomMembers[roomID], userID)

	req.Len(registry.SinksForRoom(roomID), 1)
	req.Contains(registry.SinksForRoom(roomID), sink)
}

func TestRegistry_Subscribe_Without_Live_Handle_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When a disconnected user is subscribed
	ok := registry.Subscribe(42, 1)

	// Then nothing is recorded
	req.False(ok)
	req.Empty(registry.RoomMembers)
	req.Nil(registry.SinksForRoom(1))
}

func TestRegistry_Subscribe_One_Room_Multiple_Participants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID(1)
	sink1 := &Sink{}
	sink2 := &Sink{}

	// When participants subscribe a room
	registry.Register(1, sink1)
	registry.Register(2, sink2)
	registry.Subscribe(1, roomID)
	registry.Subscribe(2, roomID)

	// Then
	req.Len(registry.Sessions, 2)
	req.Len(registry.RoomMembers[roomID], 2)
	req.Len(registry.SinksForRoom(roomID), 2)

	// And the excluded user is left out
	sinks := registry.SinksForRoom(roomID, 1)
	req.Len(sinks, 1)
	req.Contains(sinks, sink2)
}

func TestRegistry_Unregister_Removes_From_Every_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := &Sink{}

	// Given a user subscribed to two rooms
	registry.Register(1, sink)
	registry.Subscribe(1, 10)
	registry.Subscribe(1, 20)

	// When the connection goes away
	rooms, removed := registry.Unregister(1, sink)

	// Then the user is gone from the registry and every fan-out set
	req.True(removed)
	req.ElementsMatch([]domain.RoomID{10, 20}, rooms)
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)
	_, ok := registry.Lookup(1)
	req.False(ok)
}

func TestRegistry_Register_Replaces_Previous_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := &Sink{}
	second := &Sink{}

	// Given a first connection subscribed to a room
	registry.Register(1, first)
	registry.Subscribe(1, 10)

	// When the same user connects again
	previous := registry.Register(1, second)

	// Then the first handle is returned and loses its subscriptions
	req.Equal(first, previous)
	req.Empty(registry.SinksForRoom(10))
	sink, ok := registry.Lookup(1)
	req.True(ok)
	req.Equal(second, sink)

	// And the late disconnect of the first handle does not evict the second
	rooms, removed := registry.Unregister(1, first)
	req.False(removed)
	req.Nil(rooms)
	_, ok = registry.Lookup(1)
	req.True(ok)
}

func TestRegistry_ForceSubscribe_Notifies_Room_Joined(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := &Sink{}
	registry.Register(2, sink)

	// When another user's action pulls user 2 into room 7
	ok := registry.ForceSubscribe(context.Background(), 2, 7)

	// Then user 2 is subscribed and told about it
	req.True(ok)
	req.True(registry.IsSubscribed(2, 7))
	req.Equal([]event.DomainEvent{event.RoomJoined{RoomID: 7}}, sink.Events())

	// And a disconnected user is skipped silently
	req.False(registry.ForceSubscribe(context.Background(), 3, 7))
}

func TestRegistry_UnSubscribe_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := &Sink{}

	// Given a participant subscribes a room
	registry.Register(1, sink)
	registry.Subscribe(1, 1)

	// When a participant unsubscribe a room
	registry.Unsubscribe(1, 1)

	// Then the room doesn't exist anymore
	// And the connection is still alive
	req.Empty(registry.RoomMembers)
	req.Empty(registry.RoomsOf(1))
	req.Equal(1, registry.Count())
}
