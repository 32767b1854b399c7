package repositories

import (
	"chat-live/domain"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_Scan_Describes_Records(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := t.Context()

	// Given a user and a message
	user, err := NewUserRepository(store).CreateUser(ctx, domain.User{Email: "alice@example.com", Nickname: "alice", PasswordHash: "h"})
	req.NoError(err)
	_, err = NewMessageRepository(store, slog.Default(), nil).InsertMessageWithReceipt(ctx, domain.Message{RoomID: 3, SenderID: user.ID, Type: domain.TextMessage, Content: "hello"})
	req.NoError(err)

	// When the message prefix is scanned
	records, err := store.Scan("msg:", 0)
	req.NoError(err)

	// Then the message and its locator are decoded
	kinds := make(map[string]string)
	for _, r := range records {
		kinds[r.Kind] = r.Detail
	}
	req.Contains(kinds, "MESSAGE")
	req.Contains(kinds["MESSAGE"], "hello")
	req.Contains(kinds, "INDEX")

	users, err := store.Scan("user:", 0)
	req.NoError(err)
	req.Len(users, 1)
	req.Equal("USER", users[0].Kind)
	req.Contains(users[0].Detail, "alice@example.com")
}

func TestStore_Scan_Honors_Limit_And_Skips_Sequences(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	repository := NewUserRepository(store)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := repository.CreateUser(t.Context(), domain.User{Email: email, Nickname: "n", PasswordHash: "h"})
		req.NoError(err)
	}

	records, err := store.Scan("user:", 2)
	req.NoError(err)
	req.Len(records, 2)

	all, err := store.Scan("", 0)
	req.NoError(err)
	for _, r := range all {
		req.NotContains(r.Key, "seq:")
	}
}

func TestDescribe_Unknown_Prefix(t *testing.T) {
	kind, detail := Describe("other:1", []byte("abc"))
	require.Equal(t, "RAW", kind)
	require.Equal(t, "Size: 3 bytes", detail)
}
