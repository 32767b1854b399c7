package services

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/chat"
	"chat-live/domain/event"
	"chat-live/errors"
	"chat-live/observability"
	"context"
	"fmt"
	"log/slog"
)

type IChatService interface {
	Connect(ctx context.Context, user domain.User, sink contract.EventSink) error
	Disconnect(ctx context.Context, user domain.User, sink contract.EventSink)
	Handle(ctx context.Context, user domain.User, cmd chat.Command) (event.DomainEvent, error)
}

// Replaceable is implemented by handles that must hear about a newer
// connection of the same user taking over.
type Replaceable interface {
	Replaced()
}

// ChatService maps every inbound event of an admitted connection to one
// handler. A handler either returns a reply for the caller, an error for the
// caller, or nothing when its outcome travels through fan-out.
type ChatService struct {
	log           *slog.Logger
	registry      contract.IRegistry
	sequencer     contract.ISequencer
	subscriptions *SubscriptionManager
	pipeline      *Pipeline
	receipts      *ReceiptAggregator
	presence      *Presence
	rooms         IRoomService
}

func NewChatService(
	log *slog.Logger,
	registry contract.IRegistry,
	sequencer contract.ISequencer,
	subscriptions *SubscriptionManager,
	pipeline *Pipeline,
	receipts *ReceiptAggregator,
	presence *Presence,
	rooms IRoomService,
) *ChatService {
	return &ChatService{
		log:           log,
		registry:      registry,
		sequencer:     sequencer,
		subscriptions: subscriptions,
		pipeline:      pipeline,
		receipts:      receipts,
		presence:      presence,
		rooms:         rooms,
	}
}

// Connect binds the handle to the user and joins it to its active rooms.
// A previous handle of the same user is replaced.
func (s *ChatService) Connect(ctx context.Context, user domain.User, sink contract.EventSink) error {
	previous := s.registry.Register(user.ID, sink)
	if previous == nil {
		observability.ConnectionsActive.Inc()
	} else if replaced, ok := previous.(Replaceable); ok {
		replaced.Replaced()
	}

	rooms, err := s.subscriptions.SubscribeActiveRooms(ctx, user.ID)
	if err != nil {
		s.Disconnect(ctx, user, sink)
		return fmt.Errorf("subscribing user %d: %w", user.ID, err)
	}
	s.log.Info("User connected", "user_id", user.ID, "rooms", rooms, "replaced", previous != nil)
	return nil
}

// Disconnect forgets the handle unless a newer one already replaced it.
func (s *ChatService) Disconnect(ctx context.Context, user domain.User, sink contract.EventSink) {
	rooms, removed := s.registry.Unregister(user.ID, sink)
	if !removed {
		return
	}
	observability.ConnectionsActive.Dec()
	s.presence.ClearTyping(ctx, user, rooms)
	s.log.Info("User disconnected", "user_id", user.ID)
}

func (s *ChatService) Handle(ctx context.Context, user domain.User, cmd chat.Command) (event.DomainEvent, error) {
	switch c := cmd.(type) {
	case chat.SendMessage:
		return nil, s.sequencer.Dispatch(ctx, c.RoomID, func(ctx context.Context) error {
			_, err := s.pipeline.Send(ctx, user, c)
			return err
		})
	case chat.MarkAsRead:
		if err := s.receipts.MarkRead(ctx, user, c.MessageID); err != nil {
			s.log.Warn("Read receipt not recorded", "user_id", user.ID, "message_id", c.MessageID, "error", err)
		}
		return nil, nil
	case chat.Typing:
		s.presence.SetTyping(ctx, user, c.RoomID, c.IsTyping)
		return nil, nil
	case chat.MarkAllRead:
		marked, err := s.receipts.MarkAllRead(ctx, user.ID, c.RoomID)
		if err != nil {
			return nil, err
		}
		return event.RoomRead{RoomID: c.RoomID, Marked: marked}, nil
	case chat.LeaveRoom:
		if err := s.rooms.Leave(ctx, user.ID, c.RoomID); err != nil {
			return nil, err
		}
		return event.RoomLeft{RoomID: c.RoomID}, nil
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownEvent, cmd)
	}
}
