package services

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/repositories"
	"context"
	"log/slog"
)

// SubscriptionManager joins live handles to the fan-out sets of their rooms.
// It is the only way a reconnecting user gets its room subscriptions back.
type SubscriptionManager struct {
	log         *slog.Logger
	registry    contract.IRegistry
	memberships repositories.IMembershipRepository
}

func NewSubscriptionManager(log *slog.Logger, registry contract.IRegistry, memberships repositories.IMembershipRepository) *SubscriptionManager {
	return &SubscriptionManager{log: log, registry: registry, memberships: memberships}
}

// SubscribeActiveRooms subscribes the user's live handle to every room where
// its membership is not hidden and returns how many rooms were joined.
func (s *SubscriptionManager) SubscribeActiveRooms(ctx context.Context, userID domain.UserID) (int, error) {
	rooms, err := s.memberships.ListActiveRoomsFor(ctx, userID)
	if err != nil {
		return 0, err
	}
	joined := 0
	for _, roomID := range rooms {
		if s.registry.Subscribe(userID, roomID) {
			joined++
		}
	}
	s.log.Debug("Subscribed to active rooms", "user_id", userID, "rooms", joined)
	return joined, nil
}

// Reactivate pushes the room onto the live handles of reactivated users.
// Users without a live handle pick the room up on their next connect.
func (s *SubscriptionManager) Reactivate(ctx context.Context, roomID domain.RoomID, userIDs []domain.UserID) {
	for _, userID := range userIDs {
		if s.registry.ForceSubscribe(ctx, userID, roomID) {
			s.log.Debug("Live handle rejoined room", "user_id", userID, "room_id", roomID)
		}
	}
}
