package services

import (
	"chat-live/domain"
	"chat-live/domain/event"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	"log/slog"
)

type HistoryMessage struct {
	event.NewMessage
	ReadByMe bool `json:"readByMe"`
}

type HistoryPage struct {
	Messages   []HistoryMessage `json:"messages"`
	NextCursor *string          `json:"nextCursor"`
}

// HistoryService pages through a room on behalf of one of its members.
type HistoryService struct {
	log         *slog.Logger
	users       repositories.IUserRepository
	memberships repositories.IMembershipRepository
	messages    repositories.IMessageRepository
}

func NewHistoryService(log *slog.Logger, repos repositories.Repositories) *HistoryService {
	return &HistoryService{
		log:         log,
		users:       repos.Users,
		memberships: repos.Memberships,
		messages:    repos.Messages,
	}
}

// List returns the page after cursor, newest first. Messages at or before
// the reader's visibility horizon are never returned.
func (s *HistoryService) List(ctx context.Context, readerID domain.UserID, roomID domain.RoomID, cursor *string) (HistoryPage, error) {
	membership, found, err := s.memberships.FindMembership(ctx, roomID, readerID)
	if err != nil {
		return HistoryPage{}, err
	}
	if !found || !membership.Active() {
		return HistoryPage{}, errors.ErrNotAMember
	}

	entries, next, err := s.messages.GetMessages(ctx, repositories.HistoryQuery{
		RoomID:   roomID,
		ReaderID: readerID,
		After:    membership.ClearedAt,
		Cursor:   cursor,
	})
	if err != nil {
		return HistoryPage{}, err
	}

	senders := make(map[domain.UserID]domain.Sender)
	page := HistoryPage{Messages: make([]HistoryMessage, 0, len(entries)), NextCursor: next}
	for _, entry := range entries {
		sender, ok := senders[entry.Message.SenderID]
		if !ok {
			user, err := s.users.GetUser(ctx, entry.Message.SenderID)
			if err != nil {
				return HistoryPage{}, err
			}
			sender = user.Sender()
			senders[user.ID] = sender
		}
		page.Messages = append(page.Messages, HistoryMessage{
			NewMessage: event.NewMessageFrom(entry.Message, sender, entry.ReadCount),
			ReadByMe:   entry.ReadByReader,
		})
	}
	return page, nil
}
