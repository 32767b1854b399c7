package services

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/chat"
	"chat-live/domain/event"
	"chat-live/errors"
	"chat-live/observability"
	"chat-live/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Pipeline turns a send_message command into a persisted message and its
// fan-out. Calls for one room are expected to be serialized by the caller.
type Pipeline struct {
	log           *slog.Logger
	rooms         repositories.IRoomRepository
	memberships   repositories.IMembershipRepository
	messages      repositories.IMessageRepository
	subscriptions *SubscriptionManager
	fanout        contract.IFanout
	now           func() time.Time
}

func NewPipeline(
	log *slog.Logger,
	repos repositories.Repositories,
	subscriptions *SubscriptionManager,
	fanout contract.IFanout,
) *Pipeline {
	return &Pipeline{
		log:           log,
		rooms:         repos.Rooms,
		memberships:   repos.Memberships,
		messages:      repos.Messages,
		subscriptions: subscriptions,
		fanout:        fanout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Send authorizes the sender, revives soft-left members, persists the message
// together with the sender receipt and broadcasts it to the whole room,
// sender included.
func (p *Pipeline) Send(ctx context.Context, sender domain.User, cmd chat.SendMessage) (event.NewMessage, error) {
	if cmd.RoomID == 0 || strings.TrimSpace(cmd.Content) == "" {
		return event.NewMessage{}, errors.ErrMissingFields
	}
	msgType := cmd.Type
	if msgType == "" {
		msgType = domain.TextMessage
	}
	if msgType == domain.SystemMessage {
		return event.NewMessage{}, errors.ErrInvalidMessageType
	}

	membership, found, err := p.memberships.FindMembership(ctx, cmd.RoomID, sender.ID)
	if err != nil {
		return event.NewMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if !found || !membership.Active() {
		return event.NewMessage{}, errors.ErrNotAMember
	}

	room, err := p.rooms.GetRoom(ctx, cmd.RoomID)
	if err != nil {
		return event.NewMessage{}, err
	}

	now := p.now()
	if room.IsDirect() {
		if err = p.restoreCounterpart(ctx, room, sender.ID, now); err != nil {
			return event.NewMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
	}

	reactivated, err := p.memberships.ReactivateHidden(ctx, room.ID, sender.ID, now)
	if err != nil {
		return event.NewMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if len(reactivated) > 0 {
		observability.Reactivations.WithLabelValues(string(room.Type)).Add(float64(len(reactivated)))
		p.subscriptions.Reactivate(ctx, room.ID, reactivated)
	}

	message, err := p.messages.InsertMessageWithReceipt(ctx, domain.Message{
		RoomID:   room.ID,
		SenderID: sender.ID,
		Type:     msgType,
		Content:  cmd.Content,
	})
	if err != nil {
		observability.PersistenceFailures.Inc()
		p.log.Error("Message not persisted", "room_id", room.ID, "sender_id", sender.ID, "error", err)
		return event.NewMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	observability.MessagesPersisted.WithLabelValues(string(message.Type)).Inc()

	newMessage := event.NewMessageFrom(message, sender.Sender(), 1)
	delivered := p.fanout.Broadcast(ctx, room.ID, newMessage)
	p.log.Debug("Message delivered", "message_id", message.ID, "room_id", room.ID, "handles", delivered)
	return newMessage, nil
}

// restoreCounterpart recreates the missing side of a direct room from the
// latest message not written by the sender. Nothing happens when no such
// message exists.
func (p *Pipeline) restoreCounterpart(ctx context.Context, room domain.Room, senderID domain.UserID, now time.Time) error {
	members, err := p.memberships.ListMembers(ctx, room.ID)
	if err != nil {
		return err
	}
	if len(members) >= 2 {
		return nil
	}
	counterpart, found, err := p.messages.LatestCounterpartSender(ctx, room.ID, senderID)
	if err != nil {
		return err
	}
	if !found {
		p.log.Warn("Direct room has a single member and no counterpart to restore", "room_id", room.ID)
		return nil
	}
	err = p.memberships.UpsertMembership(ctx, domain.Membership{
		RoomID:    room.ID,
		UserID:    counterpart,
		Hidden:    false,
		ClearedAt: &now,
	})
	if err != nil {
		return err
	}
	observability.Reactivations.WithLabelValues(string(room.Type)).Inc()
	p.subscriptions.Reactivate(ctx, room.ID, []domain.UserID{counterpart})
	return nil
}
