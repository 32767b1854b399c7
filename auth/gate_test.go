package auth

import (
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGate_Admit(t *testing.T) {
	manager := NewTokenManager("gate-secret", time.Hour)
	alice := domain.User{ID: 1, Nickname: "alice"}

	t.Run("known user is admitted", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		users := mocks.NewMockIUserRepository(ctrl)
		users.EXPECT().GetUser(gomock.Any(), domain.UserID(1)).Return(alice, nil)

		token, err := manager.Generate(1, nil)
		req.NoError(err)

		user, err := NewGate(manager, users).Admit(t.Context(), token)
		req.NoError(err)
		req.Equal(alice, user)
	})

	t.Run("missing credential", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockIUserRepository(ctrl)
		_, err := NewGate(manager, users).Admit(t.Context(), "")
		require.ErrorIs(t, err, errors.ErrUnauthenticated)
	})

	t.Run("unknown subject", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		users := mocks.NewMockIUserRepository(ctrl)
		users.EXPECT().GetUser(gomock.Any(), domain.UserID(9)).Return(domain.User{}, errors.ErrUserNotFound)

		token, err := manager.Generate(9, nil)
		req.NoError(err)

		_, err = NewGate(manager, users).Admit(t.Context(), token)
		req.ErrorIs(err, errors.ErrInvalidToken)
	})

	t.Run("bad token never reaches the store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockIUserRepository(ctrl)
		_, err := NewGate(manager, users).Admit(t.Context(), "garbage")
		require.ErrorIs(t, err, errors.ErrInvalidToken)
	})
}

func TestBearerFromRequest(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc")
	req.Equal("abc", BearerFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=xyz", nil)
	req.Equal("xyz", BearerFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=xyz", nil)
	r.Header.Set("Authorization", "Basic abc")
	req.Empty(BearerFromRequest(r))
}
