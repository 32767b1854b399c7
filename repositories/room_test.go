package repositories

import (
	"chat-live/domain"
	"chat-live/errors"
	"github.com/stretchr/testify/require"
	"log/slog"
	"testing"
)

func TestRoomRepository_Direct_Room_Is_Unique_Per_Pair(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	rooms := NewRoomRepository(store)
	memberships := NewMembershipRepository(store)
	ctx := t.Context()

	// When a direct room is created twice for the same pair
	first, err := rooms.CreateRoom(ctx, domain.Room{Type: domain.DirectRoom}, []domain.UserID{1, 2}, nil)
	req.NoError(err)
	second, err := rooms.CreateRoom(ctx, domain.Room{Type: domain.DirectRoom}, []domain.UserID{2, 1}, nil)
	req.NoError(err)

	// Then the existing room is returned
	req.Equal(first.ID, second.ID)

	found, ok, err := rooms.FindDirectRoom(ctx, 2, 1)
	req.NoError(err)
	req.True(ok)
	req.Equal(first, found)

	members, err := memberships.ListMembers(ctx, first.ID)
	req.NoError(err)
	req.Len(members, 2)
}

func TestRoomRepository_Group_With_Opening_Message(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	rooms := NewRoomRepository(store)
	messages := NewMessageRepository(store, slog.Default(), nil)
	ctx := t.Context()

	opening := &domain.Message{SenderID: 1, Type: domain.SystemMessage, Content: "alice invited bob, carol"}
	room, err := rooms.CreateRoom(ctx, domain.Room{Type: domain.GroupRoom, Title: "team"}, []domain.UserID{1, 2, 3}, opening)
	req.NoError(err)

	stored, err := rooms.GetRoom(ctx, room.ID)
	req.NoError(err)
	req.Equal("team", stored.Title)
	req.Equal(domain.GroupRoom, stored.Type)

	history, cursor, err := messages.GetMessages(ctx, HistoryQuery{RoomID: room.ID, ReaderID: 1})
	req.NoError(err)
	req.Nil(cursor)
	req.Len(history, 1)
	req.Equal(domain.SystemMessage, history[0].Message.Type)
	req.Equal(1, history[0].ReadCount)
	req.True(history[0].ReadByReader)
}

func TestRoomRepository_Direct_Room_Needs_Two_Members(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRepository(newTestStore(t))

	_, err := rooms.CreateRoom(t.Context(), domain.Room{Type: domain.DirectRoom}, []domain.UserID{1}, nil)
	req.ErrorIs(err, errors.ErrInvalidRoom)

	_, err = rooms.GetRoom(t.Context(), 404)
	req.ErrorIs(err, errors.ErrRoomNotFound)
}
