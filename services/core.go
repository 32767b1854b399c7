package services

import (
	"chat-live/contract"
	"chat-live/repositories"
	"log/slog"
)

// Core groups the services exposed to the transports.
type Core struct {
	Chat    *ChatService
	Rooms   *RoomService
	History *HistoryService
	Users   *UserService
}

// NewCore wires the live core on top of the stores and the process-local runtime.
func NewCore(
	log *slog.Logger,
	repos repositories.Repositories,
	registry contract.IRegistry,
	sequencer contract.ISequencer,
	fanout contract.IFanout,
) Core {
	subscriptions := NewSubscriptionManager(log, registry, repos.Memberships)
	rooms := NewRoomService(log, repos, registry)
	return Core{
		Rooms:   rooms,
		History: NewHistoryService(log, repos),
		Users:   NewUserService(log, repos.Users),
		Chat: NewChatService(
			log,
			registry,
			sequencer,
			subscriptions,
			NewPipeline(log, repos, subscriptions, fanout),
			NewReceiptAggregator(log, repos, fanout),
			NewPresence(log, registry, fanout),
			rooms,
		),
	}
}
