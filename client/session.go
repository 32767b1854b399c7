package main

import (
	"chat-live/domain/chat"
	"chat-live/domain/event"
	"chat-live/infrastructure/ws"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
)

const help = `/room <id>     switch the current room
/typing        start typing
/stop          stop typing
/read <id>     mark a message as read
/readall       mark the current room as read
/leave         leave the current room
/image <url>   send an image message
/file <url>    send a file message
anything else is sent as a text message`

type session struct {
	roomID int64
}

type roomData struct {
	RoomID int64 `json:"roomId"`
}

// parseLine maps one input line to the frame to send, if any, and to a
// notice for the local user.
func (s *session) parseLine(line string) (*ws.Envelope, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ""
	}
	if !strings.HasPrefix(line, "/") {
		return s.message("text", line), ""
	}
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "/help":
		return nil, help
	case "/room":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, "usage: /room <id>"
		}
		s.roomID = id
		return nil, fmt.Sprintf("now writing to room %d", id)
	case "/typing":
		return &ws.Envelope{Event: chat.TypingStartName, Data: roomData{RoomID: s.roomID}}, ""
	case "/stop":
		return &ws.Envelope{Event: chat.TypingStopName, Data: roomData{RoomID: s.roomID}}, ""
	case "/read":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, "usage: /read <message id>"
		}
		return &ws.Envelope{Event: chat.MarkAsReadName, Data: map[string]int64{"messageId": id}}, ""
	case "/readall":
		return &ws.Envelope{Event: chat.MarkAllReadName, Data: roomData{RoomID: s.roomID}}, ""
	case "/leave":
		return &ws.Envelope{Event: chat.LeaveRoomName, Data: roomData{RoomID: s.roomID}}, ""
	case "/image", "/file":
		if arg == "" {
			return nil, "usage: " + command + " <url>"
		}
		return s.message(strings.TrimPrefix(command, "/"), arg), ""
	default:
		return nil, fmt.Sprintf("unknown command %s, try /help", command)
	}
}

func (s *session) message(kind, content string) *ws.Envelope {
	return &ws.Envelope{Event: chat.SendMessageName, Data: map[string]any{
		"roomId":  s.roomID,
		"content": content,
		"type":    kind,
	}}
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// render formats one inbound frame for the terminal.
func render(data []byte) string {
	var frame inbound
	if err := json.Unmarshal(data, &frame); err != nil {
		return "?? " + string(data)
	}
	switch frame.Event {
	case event.NewMessageName:
		var e event.NewMessage
		if err := json.Unmarshal(frame.Data, &e); err != nil {
			break
		}
		content := e.Content
		if e.Type != "text" {
			content = fmt.Sprintf("[%s] %s", e.Type, e.Content)
		}
		return fmt.Sprintf("[%s] #%d %s %s: %s (read %d)",
			e.CreatedAt.Local().Format(time.TimeOnly),
			e.RoomID,
			color.FgCyan.Render(e.Sender.Nickname),
			color.FgGray.Render(fmt.Sprintf("(msg %d)", e.ID)),
			content,
			e.ReadCount,
		)
	case event.MessageReadName:
		var e event.MessageRead
		if err := json.Unmarshal(frame.Data, &e); err != nil {
			break
		}
		return fmt.Sprintf("message %d read by %s (%d)", e.MessageID, e.ReadBy.Nickname, e.ReadCount)
	case event.UserTypingName:
		var e event.UserTyping
		if err := json.Unmarshal(frame.Data, &e); err != nil {
			break
		}
		if e.IsTyping {
			return fmt.Sprintf("#%d %s is typing...", e.RoomID, e.Nickname)
		}
		return fmt.Sprintf("#%d %s stopped typing", e.RoomID, e.Nickname)
	case event.RoomJoinedName:
		var e event.RoomJoined
		if err := json.Unmarshal(frame.Data, &e); err != nil {
			break
		}
		return color.FgGreen.Render(fmt.Sprintf("joined room %d", e.RoomID))
	case event.RoomLeftName:
		var e event.RoomLeft
		if err := json.Unmarshal(frame.Data, &e); err != nil {
			break
		}
		return fmt.Sprintf("left room %d", e.RoomID)
	case event.RoomReadName:
		var e event.RoomRead
		if err := json.Unmarshal(frame.Data, &e); err != nil {
			break
		}
		return fmt.Sprintf("room %d: %d messages marked as read", e.RoomID, e.Marked)
	case event.ErrorName:
		var e event.Failure
		if err := json.Unmarshal(frame.Data, &e); err != nil {
			break
		}
		return color.FgRed.Render("error: " + e.Message)
	}
	return fmt.Sprintf("%s %s", frame.Event, string(frame.Data))
}
