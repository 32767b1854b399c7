package repositories

import (
	"log/slog"
)

// Repositories groups the stores the live core reads and writes.
type Repositories struct {
	Users       IUserRepository
	Rooms       IRoomRepository
	Memberships IMembershipRepository
	Messages    IMessageRepository
}

func NewBadgerRepositories(store *Store, log *slog.Logger, limitMessages *int) Repositories {
	return Repositories{
		Users:       NewUserRepository(store),
		Rooms:       NewRoomRepository(store),
		Memberships: NewMembershipRepository(store),
		Messages:    NewMessageRepository(store, log, limitMessages),
	}
}
