//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-live/domain"
	"chat-live/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the live connection handle of one user.
// Consume must not block on a slow client.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the process-local directory of live connections and
// the rooms each of them is subscribed to.
type IRegistry interface {
	Register(userID domain.UserID, sink EventSink) EventSink
	Unregister(userID domain.UserID, sink EventSink) ([]domain.RoomID, bool)
	Lookup(userID domain.UserID) (EventSink, bool)
	Subscribe(userID domain.UserID, roomID domain.RoomID) bool
	ForceSubscribe(ctx context.Context, userID domain.UserID, roomID domain.RoomID) bool
	Unsubscribe(userID domain.UserID, roomID domain.RoomID)
	IsSubscribed(userID domain.UserID, roomID domain.RoomID) bool
	SinksForRoom(roomID domain.RoomID, exclude ...domain.UserID) []EventSink
}

type IFanout interface {
	Broadcast(ctx context.Context, roomID domain.RoomID, e event.DomainEvent, exclude ...domain.UserID) int
}

// ISequencer runs work keyed by room one at a time, in submission order.
type ISequencer interface {
	Dispatch(ctx context.Context, roomID domain.RoomID, fn func(ctx context.Context) error) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}
