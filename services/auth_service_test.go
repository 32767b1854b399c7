package services

import (
	"chat-live/auth"
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/mocks"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)
	svc := NewAuthService(mockRepo, tokens)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		password := "ComplexPass123!"

		// The repository must receive a hash, never the plain password
		mockRepo.EXPECT().
			CreateUser(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user domain.User) (domain.User, error) {
				req.NotEqual(password, user.PasswordHash)
				req.Equal("alice", user.Nickname)
				user.ID = 12
				user.Roles = []string{"user"}
				return user, nil
			}).
			Times(1)

		session, err := svc.Register(t.Context(), "test@example.com", " alice ", password)

		req.NoError(err)
		req.NotEmpty(session.Token)
		req.Equal(domain.UserID(12), session.User.ID)

		claims, err := tokens.Validate(string(session.Token))
		req.NoError(err)
		req.Equal(domain.UserID(12), claims.UserID)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should never be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		session, err := svc.Register(t.Context(), "test@example.com", "alice", "simplepassword")

		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(session.Token)
	})

	t.Run("should fail when the nickname is missing", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register(t.Context(), "test@example.com", " ", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrInvalidPayload)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any(), gomock.Any()).
			Return(domain.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(t.Context(), "duplicate@example.com", "alice", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, auth.NewTokenManager("test-secret", time.Hour))

	password := "ComplexPass123!"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	stored := domain.User{ID: 3, Email: "bob@example.com", Nickname: "bob", PasswordHash: hash, Roles: []string{"user"}}

	t.Run("should issue a token for the right password", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any(), "bob@example.com").Return(stored, nil)

		session, err := svc.Login(t.Context(), "bob@example.com", password)

		req.NoError(err)
		req.NotEmpty(session.Token)
		req.Equal(stored.Sender(), session.User)
	})

	t.Run("should hide whether the email or the password was wrong", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any(), "bob@example.com").Return(stored, nil)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any(), "nobody@example.com").Return(domain.User{}, errors.ErrUserNotFound)

		_, err := svc.Login(t.Context(), "bob@example.com", "WrongPass123!")
		req.ErrorIs(err, errors.ErrInvalidCredentials)

		_, err = svc.Login(t.Context(), "nobody@example.com", password)
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should surface storage failures", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(domain.User{}, fmt.Errorf("disk failure"))

		_, err := svc.Login(t.Context(), "bob@example.com", password)
		req.Error(err)
		req.NotErrorIs(err, errors.ErrInvalidCredentials)
	})
}
