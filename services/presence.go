package services

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/event"
	"context"
	"log/slog"
)

// Presence relays typing indicators. Nothing is persisted and no state is
// kept: clients expire a typing indicator on their own.
type Presence struct {
	log      *slog.Logger
	registry contract.IRegistry
	fanout   contract.IFanout
}

func NewPresence(log *slog.Logger, registry contract.IRegistry, fanout contract.IFanout) *Presence {
	return &Presence{log: log, registry: registry, fanout: fanout}
}

// SetTyping notifies the other subscribers of the room. A user whose handle
// is not subscribed to the room reaches nobody.
func (p *Presence) SetTyping(ctx context.Context, user domain.User, roomID domain.RoomID, isTyping bool) {
	if !p.registry.IsSubscribed(user.ID, roomID) {
		p.log.Debug("Typing ignored outside of a subscribed room", "user_id", user.ID, "room_id", roomID)
		return
	}
	p.fanout.Broadcast(ctx, roomID, typingEvent(user, roomID, isTyping), user.ID)
}

// ClearTyping tells the rooms a user has just left that it stopped typing.
func (p *Presence) ClearTyping(ctx context.Context, user domain.User, rooms []domain.RoomID) {
	for _, roomID := range rooms {
		p.fanout.Broadcast(ctx, roomID, typingEvent(user, roomID, false), user.ID)
	}
}

func typingEvent(user domain.User, roomID domain.RoomID, isTyping bool) event.UserTyping {
	return event.UserTyping{
		UserID:   user.ID,
		Nickname: user.Nickname,
		RoomID:   roomID,
		IsTyping: isTyping,
	}
}
