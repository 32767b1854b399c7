package api

import (
	"bytes"
	"chat-live/auth"
	"chat-live/infrastructure/ws"
	"chat-live/repositories"
	"chat-live/runtime"
	"chat-live/runtime/workers"
	"chat-live/services"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store, err := repositories.NewStore(db, log)
	req.NoError(err)
	repos := repositories.NewBadgerRepositories(store, log, nil)

	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), 2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	req.NoError(orchestrator.Start(ctx))
	core := services.NewCore(log, repos, registry, orchestrator, runtime.NewFanout(log, registry, time.Second))

	tokens := auth.NewTokenManager("router-secret", time.Hour)
	gate := auth.NewGate(tokens, repos.Users)
	handler := NewHandler(log, services.NewAuthService(repos.Users, tokens), core, store)
	socket := ws.NewSocketHandler(log, gate, core.Chat, 16, time.Second, []string{"*"})
	server := httptest.NewServer(NewRouter(log, handler, gate, socket, []string{"*"}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		orchestrator.Stop()
		_ = store.Close()
		_ = db.Close()
	})
	return server
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID       int64  `json:"id"`
		Nickname string `json:"nickname"`
	} `json:"user"`
}

func call(t *testing.T, server *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	request, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Client().Do(request)
	require.NoError(t, err)
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, content
}

func register(t *testing.T, server *httptest.Server, nickname string) session {
	t.Helper()
	status, body := call(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    nickname + "@example.com",
		"nickname": nickname,
		"password": "ComplexPass123!",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var s session
	require.NoError(t, json.Unmarshal(body, &s))
	return s
}

func TestRouter_Accounts(t *testing.T) {
	server := newTestServer(t)
	alice := register(t, server, "alice")
	require.NotEmpty(t, alice.Token)
	require.Equal(t, "alice", alice.User.Nickname)

	tests := []struct {
		name   string
		path   string
		body   map[string]string
		status int
	}{
		{
			name:   "duplicate email",
			path:   "/api/auth/register",
			body:   map[string]string{"email": "ALICE@example.com", "nickname": "alice2", "password": "ComplexPass123!"},
			status: http.StatusConflict,
		},
		{
			name:   "weak password",
			path:   "/api/auth/register",
			body:   map[string]string{"email": "bob@example.com", "nickname": "bob", "password": "weakpassword"},
			status: http.StatusBadRequest,
		},
		{
			name:   "login",
			path:   "/api/auth/login",
			body:   map[string]string{"email": "alice@example.com", "password": "ComplexPass123!"},
			status: http.StatusOK,
		},
		{
			name:   "wrong password",
			path:   "/api/auth/login",
			body:   map[string]string{"email": "alice@example.com", "password": "WrongPass123!"},
			status: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, server, http.MethodPost, tt.path, "", tt.body)
			require.Equal(t, tt.status, status, string(body))
		})
	}
}

func TestRouter_Rooms(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice, bob, carol := register(t, server, "alice"), register(t, server, "bob"), register(t, server, "carol")

	// Given a group created by alice
	status, body := call(t, server, http.MethodPost, "/api/rooms/group", alice.Token, map[string]any{
		"title":     "weekend",
		"memberIds": []int64{bob.User.ID, carol.User.ID},
	})
	req.Equal(http.StatusCreated, status, string(body))
	var room struct {
		ID    int64  `json:"id"`
		Type  string `json:"type"`
		Title string `json:"title"`
	}
	req.NoError(json.Unmarshal(body, &room))
	req.Equal("group", room.Type)

	// Then bob sees the invitation in the history
	status, body = call(t, server, http.MethodGet, fmt.Sprintf("/api/rooms/%d/messages", room.ID), bob.Token, nil)
	req.Equal(http.StatusOK, status)
	var page struct {
		Messages []struct {
			Content   string `json:"content"`
			Type      string `json:"type"`
			ReadCount int    `json:"readCount"`
			ReadByMe  bool   `json:"readByMe"`
		} `json:"messages"`
		NextCursor *string `json:"nextCursor"`
	}
	req.NoError(json.Unmarshal(body, &page))
	req.Len(page.Messages, 1)
	req.Equal("alice invited bob, carol", page.Messages[0].Content)
	req.False(page.Messages[0].ReadByMe)
	req.Nil(page.NextCursor)

	// When bob reads everything
	status, body = call(t, server, http.MethodPost, fmt.Sprintf("/api/rooms/%d/read", room.ID), bob.Token, nil)
	req.Equal(http.StatusOK, status)
	req.JSONEq(fmt.Sprintf(`{"roomId":%d,"marked":1}`, room.ID), string(body))

	// And leaves
	status, _ = call(t, server, http.MethodDelete, fmt.Sprintf("/api/rooms/%d", room.ID), bob.Token, nil)
	req.Equal(http.StatusNoContent, status)
	status, _ = call(t, server, http.MethodGet, fmt.Sprintf("/api/rooms/%d/messages", room.ID), bob.Token, nil)
	req.Equal(http.StatusForbidden, status)

	// A direct room with yourself is refused, with bob it is created once
	status, _ = call(t, server, http.MethodPost, "/api/rooms/direct", alice.Token, map[string]any{"userId": alice.User.ID})
	req.Equal(http.StatusBadRequest, status)
	status, first := call(t, server, http.MethodPost, "/api/rooms/direct", alice.Token, map[string]any{"userId": bob.User.ID})
	req.Equal(http.StatusOK, status)
	status, second := call(t, server, http.MethodPost, "/api/rooms/direct", bob.Token, map[string]any{"userId": alice.User.ID})
	req.Equal(http.StatusOK, status)
	req.JSONEq(string(first), string(second))
	status, _ = call(t, server, http.MethodPost, "/api/rooms/direct", alice.Token, map[string]any{"userId": 4242})
	req.Equal(http.StatusNotFound, status)
}

func TestRouter_Room_List_And_Lookup(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice, bob := register(t, server, "alice"), register(t, server, "bob")

	// Given alice found bob and opened a direct room with him
	status, body := call(t, server, http.MethodGet, "/api/users/search?q=BO", alice.Token, nil)
	req.Equal(http.StatusOK, status, string(body))
	var search struct {
		Users []struct {
			ID       int64  `json:"id"`
			Nickname string `json:"nickname"`
		} `json:"users"`
	}
	req.NoError(json.Unmarshal(body, &search))
	req.Len(search.Users, 1)
	req.Equal(bob.User.ID, search.Users[0].ID)

	status, body = call(t, server, http.MethodPost, "/api/rooms/direct", alice.Token, map[string]any{"userId": bob.User.ID})
	req.Equal(http.StatusOK, status, string(body))
	var room struct {
		ID int64 `json:"id"`
	}
	req.NoError(json.Unmarshal(body, &room))

	// Then the room is listed under bob's nickname
	status, body = call(t, server, http.MethodGet, "/api/rooms", alice.Token, nil)
	req.Equal(http.StatusOK, status, string(body))
	var list struct {
		Rooms []struct {
			ID          int64   `json:"id"`
			DisplayName string  `json:"displayName"`
			MemberCount int     `json:"memberCount"`
			LastMessage *string `json:"lastMessage"`
			UnreadCount int     `json:"unreadCount"`
		} `json:"rooms"`
	}
	req.NoError(json.Unmarshal(body, &list))
	req.Len(list.Rooms, 1)
	req.Equal(room.ID, list.Rooms[0].ID)
	req.Equal("bob", list.Rooms[0].DisplayName)
	req.Equal(2, list.Rooms[0].MemberCount)
	req.Nil(list.Rooms[0].LastMessage)

	// And described with both members
	status, body = call(t, server, http.MethodGet, fmt.Sprintf("/api/rooms/%d", room.ID), bob.Token, nil)
	req.Equal(http.StatusOK, status, string(body))
	var detail struct {
		DisplayName string `json:"displayName"`
		Members     []struct {
			Nickname string `json:"nickname"`
		} `json:"members"`
	}
	req.NoError(json.Unmarshal(body, &detail))
	req.Equal("alice", detail.DisplayName)
	req.Len(detail.Members, 2)

	// And bob's public profile carries no password hash
	status, body = call(t, server, http.MethodGet, fmt.Sprintf("/api/users/%d", bob.User.ID), alice.Token, nil)
	req.Equal(http.StatusOK, status, string(body))
	req.Contains(string(body), `"nickname":"bob"`)
	req.NotContains(string(body), "password")
}

func TestRouter_Rejections(t *testing.T) {
	server := newTestServer(t)
	alice := register(t, server, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{name: "no token", method: http.MethodGet, path: "/api/rooms/1/messages", status: http.StatusUnauthorized},
		{name: "bad token", method: http.MethodGet, path: "/api/rooms/1/messages", token: "nope", status: http.StatusUnauthorized},
		{name: "bad room id", method: http.MethodGet, path: "/api/rooms/abc/messages", token: alice.Token, status: http.StatusBadRequest},
		{name: "not a member", method: http.MethodGet, path: "/api/rooms/1/messages", token: alice.Token, status: http.StatusForbidden},
		{name: "room of others", method: http.MethodGet, path: "/api/rooms/1", token: alice.Token, status: http.StatusForbidden},
		{name: "empty search", method: http.MethodGet, path: "/api/users/search?q=", token: alice.Token, status: http.StatusBadRequest},
		{name: "unknown user", method: http.MethodGet, path: "/api/users/4242", token: alice.Token, status: http.StatusNotFound},
		{name: "bad user id", method: http.MethodGet, path: "/api/users/abc", token: alice.Token, status: http.StatusBadRequest},
		{name: "health", method: http.MethodGet, path: "/healthz", status: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", status: http.StatusOK},
		{name: "websocket without token", method: http.MethodGet, path: "/ws", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, server, tt.method, tt.path, tt.token, nil)
			require.Equal(t, tt.status, status, string(body))
		})
	}
}
