package runtime

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/event"
	"context"
	"slices"
	"sync"
)

var _ contract.IRegistry = (*Registry)(nil)

type Set map[domain.UserID]struct{}

// Registry maps each connected user to a single live handle and keeps,
// per room, the set of users whose handle receives that room's fan-out.
// It is local to one process.
type Registry struct {
	mu          sync.RWMutex
	Sessions    map[domain.UserID]contract.EventSink
	RoomMembers map[domain.RoomID]Set
	userRooms   map[domain.UserID]map[domain.RoomID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:    make(map[domain.UserID]contract.EventSink),
		RoomMembers: make(map[domain.RoomID]Set),
		userRooms:   make(map[domain.UserID]map[domain.RoomID]struct{}),
	}
}

// Register binds the handle to the user and returns the handle it replaced, if any.
// The replaced handle loses every room subscription.
func (r *Registry) Register(userID domain.UserID, sink contract.EventSink) contract.EventSink {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.Sessions[userID]
	if previous != nil {
		r.dropRoomsLocked(userID)
	}
	r.Sessions[userID] = sink
	return previous
}

// Unregister removes the user only while sink is still its current handle,
// so a replaced connection closing late cannot evict its successor.
// It returns the rooms the handle was subscribed to and whether it was removed.
func (r *Registry) Unregister(userID domain.UserID, sink contract.EventSink) ([]domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.Sessions[userID]
	if !ok || current != sink {
		return nil, false
	}
	delete(r.Sessions, userID)
	return r.dropRoomsLocked(userID), true
}

func (r *Registry) Lookup(userID domain.UserID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.Sessions[userID]
	return sink, ok
}

// Subscribe adds the user's live handle to the room fan-out set.
// It is a no-op returning false when the user has no live handle.
func (r *Registry) Subscribe(userID domain.UserID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribeLocked(userID, roomID)
}

// ForceSubscribe subscribes another user's live handle to the room and
// notifies that handle with a room_joined event.
func (r *Registry) ForceSubscribe(ctx context.Context, userID domain.UserID, roomID domain.RoomID) bool {
	r.mu.Lock()
	ok := r.subscribeLocked(userID, roomID)
	sink := r.Sessions[userID]
	r.mu.Unlock()

	if !ok {
		return false
	}
	_ = sink.Consume(ctx, event.RoomJoined{RoomID: roomID})
	return true
}

func (r *Registry) Unsubscribe(userID domain.UserID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(userID, roomID)
}

func (r *Registry) IsSubscribed(userID domain.UserID, roomID domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.RoomMembers[roomID][userID]
	return ok
}

// SinksForRoom resolves the room fan-out set into live handles.
// Returns nil if nobody in the room is connected.
func (r *Registry) SinksForRoom(roomID domain.RoomID, exclude ...domain.UserID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for userID := range members {
		if slices.Contains(exclude, userID) {
			continue
		}
		if sink, exists := r.Sessions[userID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// RoomsOf lists the rooms the user's handle is subscribed to.
func (r *Registry) RoomsOf(userID domain.UserID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]domain.RoomID, 0, len(r.userRooms[userID]))
	for roomID := range r.userRooms[userID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Sessions)
}

func (r *Registry) subscribeLocked(userID domain.UserID, roomID domain.RoomID) bool {
	if _, ok := r.Sessions[userID]; !ok {
		return false
	}
	if _, ok := r.RoomMembers[roomID]; !ok {
		r.RoomMembers[roomID] = make(Set)
	}
	r.RoomMembers[roomID][userID] = struct{}{}

	if _, ok := r.userRooms[userID]; !ok {
		r.userRooms[userID] = make(map[domain.RoomID]struct{})
	}
	r.userRooms[userID][roomID] = struct{}{}
	return true
}

func (r *Registry) dropRoomsLocked(userID domain.UserID) []domain.RoomID {
	var rooms []domain.RoomID
	for roomID := range r.userRooms[userID] {
		rooms = append(rooms, roomID)
		r.leaveLocked(userID, roomID)
	}
	delete(r.userRooms, userID)
	return rooms
}

func (r *Registry) leaveLocked(userID domain.UserID, roomID domain.RoomID) {
	if members, ok := r.RoomMembers[roomID]; ok {
		delete(members, userID)
		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.RoomMembers, roomID)
		}
	}
	if rooms, ok := r.userRooms[userID]; ok {
		delete(rooms, roomID)
	}
}
