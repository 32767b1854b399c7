// Package chat defines the inbound commands a connected client may issue.
// Each command is the validated payload of one wire event.
package chat

import (
	"chat-live/domain"
)

const (
	SendMessageName = "send_message"
	MarkAsReadName  = "mark_as_read"
	TypingStartName = "typing_start"
	TypingStopName  = "typing_stop"
	MarkAllReadName = "mark_all_read"
	LeaveRoomName   = "leave_room"
)

type Command interface {
	EventName() string
}

type SendMessage struct {
	RoomID  domain.RoomID
	Content string
	Type    domain.MessageType
}

func (SendMessage) EventName() string { return SendMessageName }

type MarkAsRead struct {
	MessageID domain.MessageID
}

func (MarkAsRead) EventName() string { return MarkAsReadName }

type Typing struct {
	RoomID   domain.RoomID
	IsTyping bool
}

func (t Typing) EventName() string {
	if t.IsTyping {
		return TypingStartName
	}
	return TypingStopName
}

type MarkAllRead struct {
	RoomID domain.RoomID
}

func (MarkAllRead) EventName() string { return MarkAllReadName }

type LeaveRoom struct {
	RoomID domain.RoomID
}

func (LeaveRoom) EventName() string { return LeaveRoomName }
