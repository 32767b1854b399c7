// Package event defines the closed set of events pushed to connected clients.
// Name returns the wire event name; the value itself is the event payload.
package event

import (
	"chat-live/domain"
	"time"
)

const (
	NewMessageName  = "new_message"
	MessageReadName = "message_read"
	UserTypingName  = "user_typing"
	RoomJoinedName  = "room_joined"
	RoomLeftName    = "room_left"
	RoomReadName    = "room_read"
	ErrorName       = "error"
)

type DomainEvent interface {
	Name() string
}

type NewMessage struct {
	ID        domain.MessageID   `json:"id"`
	RoomID    domain.RoomID      `json:"roomId"`
	Type      domain.MessageType `json:"type"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"createdAt"`
	Sender    domain.Sender      `json:"sender"`
	ReadCount int                `json:"readCount"`
}

func (NewMessage) Name() string { return NewMessageName }

// NewMessageFrom builds the fan-out payload of a freshly persisted message.
func NewMessageFrom(m domain.Message, sender domain.Sender, readCount int) NewMessage {
	return NewMessage{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Type:      m.Type,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Sender:    sender,
		ReadCount: readCount,
	}
}

type Reader struct {
	ID       domain.UserID `json:"id"`
	Nickname string        `json:"nickname"`
}

type MessageRead struct {
	MessageID domain.MessageID `json:"messageId"`
	ReadCount int              `json:"readCount"`
	ReadBy    Reader           `json:"readBy"`
}

func (MessageRead) Name() string { return MessageReadName }

type UserTyping struct {
	UserID   domain.UserID `json:"userId"`
	Nickname string        `json:"nickname"`
	RoomID   domain.RoomID `json:"roomId"`
	IsTyping bool          `json:"isTyping"`
}

func (UserTyping) Name() string { return UserTypingName }

type RoomJoined struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (RoomJoined) Name() string { return RoomJoinedName }

type RoomLeft struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (RoomLeft) Name() string { return RoomLeftName }

// RoomRead acknowledges a bulk read to the caller only.
type RoomRead struct {
	RoomID domain.RoomID `json:"roomId"`
	Marked int           `json:"marked"`
}

func (RoomRead) Name() string { return RoomReadName }

type Failure struct {
	Message string `json:"message"`
}

func (Failure) Name() string { return ErrorName }
