package ws

import (
	"chat-live/auth"
	"chat-live/domain"
	"chat-live/domain/event"
	"chat-live/errors"
	"chat-live/observability"
	"chat-live/services"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

const (
	readLimit          = 1 << 20
	defaultReadTimeout = 60 * time.Second
)

// Admitter resolves the bearer credential of an upgrade request to a user.
type Admitter interface {
	Admit(ctx context.Context, token string) (domain.User, error)
}

// SocketHandler admits a connection, binds it to the live core and feeds its
// inbound frames to the chat service one at a time.
type SocketHandler struct {
	log             *slog.Logger
	gate            Admitter
	chatService     services.IChatService
	upgrader        websocket.Upgrader
	bufferSize      int
	inflightTimeout time.Duration
}

func NewSocketHandler(
	log *slog.Logger,
	gate Admitter,
	chatService services.IChatService,
	bufferSize int,
	inflightTimeout time.Duration,
	allowedOrigins []string,
) *SocketHandler {
	return &SocketHandler{
		log:         log,
		gate:        gate,
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		bufferSize:      bufferSize,
		inflightTimeout: inflightTimeout,
	}
}

func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Admission happens before the upgrade: a rejected client never gets a socket
	user, err := h.gate.Admit(r.Context(), auth.BearerFromRequest(r))
	if err != nil {
		observability.ConnectionsRejected.WithLabelValues(rejectionReason(err)).Inc()
		h.log.Debug("Connection rejected", "remote", r.RemoteAddr, "error", err)
		auth.WriteUnauthorized(w, err)
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response
		return
	}

	// The connection outlives the request context once hijacked
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	conn := NewConnection(h.log, user.ID, socket, h.bufferSize)
	conn.Start()
	if err = h.chatService.Connect(ctx, user, conn); err != nil {
		h.log.Error("Connection setup failed", "user_id", user.ID, "error", err)
		_ = conn.Consume(ctx, event.Failure{Message: errors.ClientMessage(err)})
		conn.Close(websocket.CloseInternalServerErr, "setup failed")
		return
	}
	defer func() {
		h.chatService.Disconnect(ctx, user, conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
	}()

	h.readLoop(ctx, user, conn, socket)
}

func (h *SocketHandler) readLoop(ctx context.Context, user domain.User, conn *Connection, socket *websocket.Conn) {
	socket.SetReadLimit(readLimit)
	_ = socket.SetReadDeadline(time.Now().Add(defaultReadTimeout))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(defaultReadTimeout))
	})

	for {
		_, data, err := socket.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.log.Debug("Read failed", "user_id", user.ID, "connection_id", conn.ID, "error", err)
			}
			return
		}
		_ = socket.SetReadDeadline(time.Now().Add(defaultReadTimeout))

		cmd, err := DecodeFrame(data)
		if err != nil {
			h.replyError(ctx, conn, err)
			continue
		}

		// In-flight work completes even if the client goes away meanwhile
		cmdCtx, cancelCmd := context.WithTimeout(context.WithoutCancel(ctx), h.inflightTimeout)
		reply, err := h.chatService.Handle(cmdCtx, user, cmd)
		cancelCmd()
		if err != nil {
			h.log.Debug("Command failed", "user_id", user.ID, "event", cmd.EventName(), "error", err)
			h.replyError(ctx, conn, err)
			continue
		}
		if reply != nil {
			_ = conn.Consume(ctx, reply)
		}
	}
}

func (h *SocketHandler) replyError(ctx context.Context, conn *Connection, err error) {
	_ = conn.Consume(ctx, event.Failure{Message: errors.ClientMessage(err)})
}

// originChecker admits upgrades whose Origin header is listed, "*" admitting
// any. Requests without an Origin come from non-browser clients and pass.
// An empty list keeps the upgrader's same-host check.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	if lo.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return lo.ContainsBy(allowed, func(o string) bool {
			return strings.EqualFold(o, origin)
		})
	}
}

func rejectionReason(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated):
		return "missing_token"
	case stderrors.Is(err, errors.ErrTokenExpired):
		return "token_expired"
	default:
		return "invalid_token"
	}
}
