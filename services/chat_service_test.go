package services

import (
	"chat-live/domain"
	"chat-live/domain/chat"
	"chat-live/domain/event"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChatService_Direct_Room_Reactivates_Hidden_Counterpart(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := t.Context()

	// Given U1 and U2 share a direct room and U2 left it
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	room, err := f.rooms.CreateDirect(ctx, u1, u2.ID)
	req.NoError(err)
	s1, s2 := f.connect(t, u1), f.connect(t, u2)

	reply, err := f.chat.Handle(ctx, u2, chat.LeaveRoom{RoomID: room.ID})
	req.NoError(err)
	req.Equal(event.RoomLeft{RoomID: room.ID}, reply)
	req.False(f.registry.IsSubscribed(u2.ID, room.ID))

	// When U1 sends "hello"
	reply, err = f.chat.Handle(ctx, u1, chat.SendMessage{RoomID: room.ID, Content: "hello"})
	req.NoError(err)
	req.Nil(reply)

	// Then U2 is active again with a fresh horizon
	membership, found, err := f.repos.Memberships.FindMembership(ctx, room.ID, u2.ID)
	req.NoError(err)
	req.True(found)
	req.True(membership.Active())
	req.NotNil(membership.ClearedAt)

	// And U2 was rejoined before receiving the message
	events := s2.Events()
	req.Len(events, 2)
	req.Equal(event.RoomJoined{RoomID: room.ID}, events[0])
	received, ok := events[1].(event.NewMessage)
	req.True(ok)
	req.Equal("hello", received.Content)
	req.Equal(1, received.ReadCount)
	req.Equal(u1.Sender(), received.Sender)

	// And the sender got its own copy
	echoed := eventsOf[event.NewMessage](s1)
	req.Len(echoed, 1)
	req.Equal(received, echoed[0])
}

func TestChatService_Group_Message_Reaches_Every_Subscriber(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := t.Context()

	// Given a group of three where U1 and U2 are subscribed
	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	room, err := f.rooms.CreateGroup(ctx, u1, "weekend", []domain.UserID{u2.ID, u3.ID})
	req.NoError(err)
	s1, s2 := f.connect(t, u1), f.connect(t, u2)

	// When U3 sends "hi"
	_, err = f.chat.Handle(ctx, u3, chat.SendMessage{RoomID: room.ID, Content: "hi"})
	req.NoError(err)

	// Then U1 and U2 receive the same message once
	m1, m2 := eventsOf[event.NewMessage](s1), eventsOf[event.NewMessage](s2)
	req.Len(m1, 1)
	req.Len(m2, 1)
	req.Equal(m1[0], m2[0])
	req.Equal("hi", m1[0].Content)
	req.Equal(1, m1[0].ReadCount)
	req.Equal(domain.TextMessage, m1[0].Type)
}

func TestChatService_Mark_As_Read(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := t.Context()

	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	room, err := f.rooms.CreateGroup(ctx, u1, "weekend", []domain.UserID{u2.ID, u3.ID})
	req.NoError(err)
	s1, s2, s3 := f.connect(t, u1), f.connect(t, u2), f.connect(t, u3)

	_, err = f.chat.Handle(ctx, u3, chat.SendMessage{RoomID: room.ID, Content: "hi"})
	req.NoError(err)
	messageID := eventsOf[event.NewMessage](s3)[0].ID

	t.Run("reader acknowledgement is broadcast to the room", func(t *testing.T) {
		req := require.New(t)
		_, err := f.chat.Handle(ctx, u2, chat.MarkAsRead{MessageID: messageID})
		req.NoError(err)

		expected := event.MessageRead{
			MessageID: messageID,
			ReadCount: 2,
			ReadBy:    event.Reader{ID: u2.ID, Nickname: "bob"},
		}
		for _, sink := range []*recorder{s1, s2, s3} {
			reads := eventsOf[event.MessageRead](sink)
			req.Len(reads, 1)
			req.Equal(expected, reads[0])
		}
	})

	t.Run("repeated acknowledgement counts once", func(t *testing.T) {
		req := require.New(t)
		_, err := f.chat.Handle(ctx, u2, chat.MarkAsRead{MessageID: messageID})
		req.NoError(err)

		req.Len(eventsOf[event.MessageRead](s1), 1)
		count, err := f.repos.Messages.CountReadReceipts(ctx, messageID)
		req.NoError(err)
		req.Equal(2, count)
	})

	t.Run("own message is never counted", func(t *testing.T) {
		req := require.New(t)
		_, err := f.chat.Handle(ctx, u3, chat.MarkAsRead{MessageID: messageID})
		req.NoError(err)

		count, err := f.repos.Messages.CountReadReceipts(ctx, messageID)
		req.NoError(err)
		req.Equal(2, count)
	})

	t.Run("unknown message is ignored", func(t *testing.T) {
		req := require.New(t)
		reply, err := f.chat.Handle(ctx, u2, chat.MarkAsRead{MessageID: 9999})
		req.NoError(err)
		req.Nil(reply)
	})
}

func TestChatService_Mark_All_Read_Replies_To_Caller_Only(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := t.Context()

	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	room, err := f.rooms.CreateGroup(ctx, u1, "weekend", []domain.UserID{u2.ID, u3.ID})
	req.NoError(err)
	s1 := f.connect(t, u1)

	for _, content := range []string{"one", "two"} {
		_, err = f.chat.Handle(ctx, u3, chat.SendMessage{RoomID: room.ID, Content: content})
		req.NoError(err)
	}

	// The opening system message of u1 is not counted for u1
	reply, err := f.chat.Handle(ctx, u1, chat.MarkAllRead{RoomID: room.ID})
	req.NoError(err)
	req.Equal(event.RoomRead{RoomID: room.ID, Marked: 2}, reply)
	req.Empty(eventsOf[event.MessageRead](s1))

	outsider := f.user(t, "dave")
	_, err = f.chat.Handle(ctx, outsider, chat.MarkAllRead{RoomID: room.ID})
	req.ErrorIs(err, errors.ErrNotAMember)
}

func TestChatService_Send_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	room, err := f.rooms.CreateGroup(ctx, u1, "weekend", []domain.UserID{u2.ID, u3.ID})
	require.NoError(t, err)
	outsider := f.user(t, "dave")
	s1 := f.connect(t, u1)

	tests := []struct {
		name     string
		user     domain.User
		cmd      chat.SendMessage
		expected error
	}{
		{name: "missing room", user: u1, cmd: chat.SendMessage{Content: "hi"}, expected: errors.ErrMissingFields},
		{name: "blank content", user: u1, cmd: chat.SendMessage{RoomID: room.ID, Content: "  "}, expected: errors.ErrMissingFields},
		{name: "not a member", user: outsider, cmd: chat.SendMessage{RoomID: room.ID, Content: "hi"}, expected: errors.ErrNotAMember},
		{name: "unknown room", user: u1, cmd: chat.SendMessage{RoomID: 4242, Content: "hi"}, expected: errors.ErrNotAMember},
		{name: "system type", user: u1, cmd: chat.SendMessage{RoomID: room.ID, Content: "hi", Type: domain.SystemMessage}, expected: errors.ErrInvalidMessageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			_, err := f.chat.Handle(ctx, tt.user, tt.cmd)
			req.ErrorIs(err, tt.expected)
		})
	}

	// Nothing but the opening message was ever written or broadcast
	page, err := f.history.List(ctx, u1.ID, room.ID, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	require.Equal(t, domain.SystemMessage, page.Messages[0].Type)
	require.Empty(t, eventsOf[event.NewMessage](s1))
}

func TestChatService_Typing(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := t.Context()

	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	room, err := f.rooms.CreateGroup(ctx, u1, "weekend", []domain.UserID{u2.ID, u3.ID})
	req.NoError(err)
	s1, s2, s3 := f.connect(t, u1), f.connect(t, u2), f.connect(t, u3)

	// When U1 starts typing and disconnects without stopping
	_, err = f.chat.Handle(ctx, u1, chat.Typing{RoomID: room.ID, IsTyping: true})
	req.NoError(err)
	f.chat.Disconnect(ctx, u1, s1)

	// Then the others saw U1 start then stop, U1 saw nothing
	expected := []event.UserTyping{
		{UserID: u1.ID, Nickname: "alice", RoomID: room.ID, IsTyping: true},
		{UserID: u1.ID, Nickname: "alice", RoomID: room.ID, IsTyping: false},
	}
	req.Equal(expected, eventsOf[event.UserTyping](s2))
	req.Equal(expected, eventsOf[event.UserTyping](s3))
	req.Empty(s1.Events())

	// And typing in a room the handle is not subscribed to reaches nobody
	outsider := f.user(t, "dave")
	f.connect(t, outsider)
	_, err = f.chat.Handle(ctx, outsider, chat.Typing{RoomID: room.ID, IsTyping: true})
	req.NoError(err)
	req.Len(eventsOf[event.UserTyping](s2), 2)
}

func TestChatService_New_Connection_Replaces_Previous(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := t.Context()

	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	room, err := f.rooms.CreateDirect(ctx, u1, u2.ID)
	req.NoError(err)

	first := f.connect(t, u1)
	second := f.connect(t, u1)
	req.True(first.replaced)
	req.False(second.replaced)

	// A late disconnect of the replaced handle keeps the new one
	f.chat.Disconnect(ctx, u1, first)
	sink, ok := f.registry.Lookup(u1.ID)
	req.True(ok)
	req.Equal(second, sink)
	req.True(f.registry.IsSubscribed(u1.ID, room.ID))

	_, err = f.chat.Handle(ctx, u2, chat.SendMessage{RoomID: room.ID, Content: "hey"})
	req.NoError(err)
	req.Empty(eventsOf[event.NewMessage](first))
	req.Len(eventsOf[event.NewMessage](second), 1)
}

func TestChatService_Concurrent_Sends_Keep_Room_Order(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := t.Context()

	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	room, err := f.rooms.CreateDirect(ctx, u1, u2.ID)
	req.NoError(err)
	s1, s2 := f.connect(t, u1), f.connect(t, u2)

	errs := make(chan error, 40)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, user := range []domain.User{u1, u2} {
			wg.Add(1)
			go func(user domain.User) {
				defer wg.Done()
				_, err := f.chat.Handle(ctx, user, chat.SendMessage{RoomID: room.ID, Content: "ping"})
				errs <- err
			}(user)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Both sides observe the same sequence, in id order
	m1, m2 := eventsOf[event.NewMessage](s1), eventsOf[event.NewMessage](s2)
	req.Len(m1, 40)
	req.Equal(m1, m2)
	for i := 1; i < len(m1); i++ {
		req.Greater(m1[i].ID, m1[i-1].ID)
	}
}

func TestChatService_Unknown_Command(t *testing.T) {
	f := newFixture(t)
	_, err := f.chat.Handle(t.Context(), domain.User{ID: 1}, nil)
	require.ErrorIs(t, err, errors.ErrUnknownEvent)
}

// slowRecorder takes a while to accept each event.
type slowRecorder struct {
	recorder
	delay time.Duration
}

func (s *slowRecorder) Consume(ctx context.Context, e event.DomainEvent) error {
	time.Sleep(s.delay)
	return s.recorder.Consume(ctx, e)
}

func TestChatService_Send_Past_Caller_Deadline_Is_Reported_As_Delivered(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := t.Context()

	// Given a direct room whose other member is slow to accept events
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	room, err := f.rooms.CreateDirect(ctx, u1, u2.ID)
	req.NoError(err)
	s1 := f.connect(t, u1)
	s2 := &slowRecorder{delay: 150 * time.Millisecond}
	req.NoError(f.chat.Connect(ctx, u2, s2))

	// When the send outlasts the caller's deadline
	sendCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = f.chat.Handle(sendCtx, u1, chat.SendMessage{RoomID: room.ID, Content: "hello"})

	// Then the committed message is not reported as a failure
	req.NoError(err)
	entries, _, err := f.repos.Messages.GetMessages(ctx, repositories.HistoryQuery{RoomID: room.ID, ReaderID: u1.ID})
	req.NoError(err)
	req.Len(entries, 1)

	// And every subscriber received it
	req.Len(eventsOf[event.NewMessage](&s2.recorder), 1)
	req.Len(eventsOf[event.NewMessage](s1), 1)
}
