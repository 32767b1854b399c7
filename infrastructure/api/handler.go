package api

import (
	"chat-live/auth"
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/chat"
	"chat-live/errors"
	"chat-live/services"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	log         *slog.Logger
	authService services.IAuthService
	core        services.Core
	store       contract.Pinger
}

func NewHandler(log *slog.Logger, authService services.IAuthService, core services.Core, store contract.Pinger) *Handler {
	return &Handler{log: log, authService: authService, core: core, store: store}
}

type registerRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createDirectRequest struct {
	UserID domain.UserID `json:"userId" validate:"required,gt=0"`
}

type createGroupRequest struct {
	Title     string          `json:"title" validate:"required,max=100"`
	MemberIDs []domain.UserID `json:"memberIds" validate:"required,dive,gt=0"`
}

type roomResponse struct {
	ID        domain.RoomID   `json:"id"`
	Type      domain.RoomType `json:"type"`
	Title     string          `json:"title,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toRoomResponse(room domain.Room) roomResponse {
	return roomResponse{ID: room.ID, Type: room.Type, Title: room.Title, CreatedAt: room.CreatedAt}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.authService.Register(r.Context(), req.Email, req.Nickname, req.Password)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, session)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, session)
}

func (h *Handler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	var req createDirectRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.core.Rooms.CreateDirect(r.Context(), user, req.UserID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, toRoomResponse(room))
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	var req createGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.core.Rooms.CreateGroup(r.Context(), user, req.Title, req.MemberIDs)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, toRoomResponse(room))
}

// LeaveRoom soft-leaves the room through the chat service so a live
// connection of the caller stops receiving it too.
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}
	if _, err := h.core.Chat.Handle(r.Context(), user, chat.LeaveRoom{RoomID: roomID}); err != nil {
		h.Fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}
	var cursor *string
	if value := r.URL.Query().Get("cursor"); value != "" {
		cursor = &value
	}
	page, err := h.core.History.List(r.Context(), user.ID, roomID, cursor)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, page)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}
	reply, err := h.core.Chat.Handle(r.Context(), user, chat.MarkAllRead{RoomID: roomID})
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, reply)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("Health check failed", "error", err)
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	rooms, err := h.core.Rooms.List(r.Context(), user.ID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}
	detail, err := h.core.Rooms.Get(r.Context(), user.ID, roomID)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, detail)
}

type userResponse struct {
	ID           domain.UserID `json:"id"`
	Email        string        `json:"email"`
	Nickname     string        `json:"nickname"`
	ProfileImage *string       `json:"profileImage"`
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{ID: user.ID, Email: user.Email, Nickname: user.Nickname, ProfileImage: user.ProfileImage}
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	found, err := h.core.Users.Search(r.Context(), user.ID, r.URL.Query().Get("q"))
	if err != nil {
		h.Fail(w, err)
		return
	}
	users := make([]userResponse, 0, len(found))
	for _, u := range found {
		users = append(users, toUserResponse(u))
	}
	h.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || id <= 0 {
		h.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, err := h.core.Users.Get(r.Context(), domain.UserID(id))
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) roomID(w http.ResponseWriter, r *http.Request) (domain.RoomID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roomId"), 10, 64)
	if err != nil || id <= 0 {
		h.Error(w, http.StatusBadRequest, "invalid room id")
		return 0, false
	}
	return domain.RoomID(id), true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := auth.ValidateStruct(v); err != nil {
		h.Fail(w, err)
		return false
	}
	return true
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"message": message})
}

var statuses = []struct {
	err    error
	status int
}{
	{errors.ErrInvalidPayload, http.StatusBadRequest},
	{errors.ErrInvalidPassword, http.StatusBadRequest},
	{errors.ErrMissingFields, http.StatusBadRequest},
	{errors.ErrInvalidRoom, http.StatusBadRequest},
	{errors.ErrInvalidMessageType, http.StatusBadRequest},
	{errors.ErrInvalidCredentials, http.StatusUnauthorized},
	{errors.ErrNotAMember, http.StatusForbidden},
	{errors.ErrUserNotFound, http.StatusNotFound},
	{errors.ErrRoomNotFound, http.StatusNotFound},
	{errors.ErrUserAlreadyExists, http.StatusConflict},
}

// Fail maps a service error to its status. Unknown errors are logged and
// never leak their details.
func (h *Handler) Fail(w http.ResponseWriter, err error) {
	for _, s := range statuses {
		if stderrors.Is(err, s.err) {
			h.Error(w, s.status, s.err.Error())
			return
		}
	}
	h.log.Error("Request failed", "error", err)
	h.Error(w, http.StatusInternalServerError, "internal error")
}
