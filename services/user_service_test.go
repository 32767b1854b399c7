package services

import (
	"chat-live/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	alice, _ := f.user(t, "alice"), f.user(t, "alicia")

	t.Run("should never find the caller", func(t *testing.T) {
		req := require.New(t)
		users, err := f.users.Search(ctx, alice.ID, "ali")
		req.NoError(err)
		req.Len(users, 1)
		req.Equal("alicia", users[0].Nickname)
	})

	t.Run("should require a term", func(t *testing.T) {
		_, err := f.users.Search(ctx, alice.ID, "  ")
		require.ErrorIs(t, err, errors.ErrInvalidPayload)
	})
}

func TestUserService_Get(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	user, err := f.users.Get(t.Context(), alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice, user)

	_, err = f.users.Get(t.Context(), 4242)
	require.ErrorIs(t, err, errors.ErrUserNotFound)
}
