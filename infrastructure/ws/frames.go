package ws

import (
	"chat-live/auth"
	"chat-live/domain"
	"chat-live/domain/chat"
	"chat-live/errors"
	"encoding/json"
	"fmt"
)

// Envelope is the single frame shape on the wire, in both directions.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Presence of roomId and content is checked by the message pipeline so the
// client gets the dedicated error.
type sendMessagePayload struct {
	RoomID  domain.RoomID `json:"roomId"`
	Content string        `json:"content" validate:"max=10000"`
	Type    string        `json:"type"`
}

type markAsReadPayload struct {
	MessageID domain.MessageID `json:"messageId" validate:"required,gt=0"`
}

type roomPayload struct {
	RoomID domain.RoomID `json:"roomId" validate:"required,gt=0"`
}

// DecodeFrame validates one inbound frame and turns it into its command.
func DecodeFrame(data []byte) (chat.Command, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	switch frame.Event {
	case chat.SendMessageName:
		var p sendMessagePayload
		if err := decodePayload(frame.Data, &p); err != nil {
			return nil, err
		}
		msgType, err := domain.ParseMessageType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidMessageType, err)
		}
		return chat.SendMessage{RoomID: p.RoomID, Content: p.Content, Type: msgType}, nil
	case chat.MarkAsReadName:
		var p markAsReadPayload
		if err := decodePayload(frame.Data, &p); err != nil {
			return nil, err
		}
		return chat.MarkAsRead{MessageID: p.MessageID}, nil
	case chat.TypingStartName, chat.TypingStopName:
		var p roomPayload
		if err := decodePayload(frame.Data, &p); err != nil {
			return nil, err
		}
		return chat.Typing{RoomID: p.RoomID, IsTyping: frame.Event == chat.TypingStartName}, nil
	case chat.MarkAllReadName:
		var p roomPayload
		if err := decodePayload(frame.Data, &p); err != nil {
			return nil, err
		}
		return chat.MarkAllRead{RoomID: p.RoomID}, nil
	case chat.LeaveRoomName:
		var p roomPayload
		if err := decodePayload(frame.Data, &p); err != nil {
			return nil, err
		}
		return chat.LeaveRoom{RoomID: p.RoomID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, frame.Event)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return auth.ValidateStruct(v)
}
