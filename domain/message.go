// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once persisted.
package domain

import (
	"fmt"
	"strings"
	"time"
)

type MessageID int64

type MessageType string

const (
	TextMessage   MessageType = "text"
	ImageMessage  MessageType = "image"
	FileMessage   MessageType = "file"
	SystemMessage MessageType = "system"
)

// ParseMessageType accepts the types a client may send. An empty value is text.
// System messages are produced by the server only.
func ParseMessageType(s string) (MessageType, error) {
	switch MessageType(s) {
	case "", TextMessage:
		return TextMessage, nil
	case ImageMessage, FileMessage:
		return MessageType(s), nil
	default:
		return "", fmt.Errorf("unknown message type %q", s)
	}
}

// Message represents an immutable chat entry.
type Message struct {
	ID        MessageID
	RoomID    RoomID
	SenderID  UserID
	Type      MessageType
	Content   string
	CreatedAt time.Time
}

// ReadReceipt is unique per (MessageID, UserID); the read count of a message
// is the number of its receipts.
type ReadReceipt struct {
	MessageID MessageID
	UserID    UserID
	ReadAt    time.Time
}

// InvitationText is the content of the system message opening a group room.
func InvitationText(creator string, invited []string) string {
	return creator + " invited " + strings.Join(invited, ", ")
}
