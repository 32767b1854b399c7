package services

import (
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const searchLimit = 20

type IUserService interface {
	Search(ctx context.Context, callerID domain.UserID, term string) ([]domain.User, error)
	Get(ctx context.Context, id domain.UserID) (domain.User, error)
}

// UserService looks up the people a user can open a room with.
type UserService struct {
	log   *slog.Logger
	users repositories.IUserRepository
}

func NewUserService(log *slog.Logger, users repositories.IUserRepository) *UserService {
	return &UserService{log: log, users: users}
}

// Search matches term against nicknames and emails. The caller is never part
// of the result.
func (s *UserService) Search(ctx context.Context, callerID domain.UserID, term string) ([]domain.User, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: search term is required", errors.ErrInvalidPayload)
	}
	users, err := s.users.SearchUsers(ctx, term, callerID, searchLimit)
	if err != nil {
		return nil, err
	}
	s.log.Debug("User search", "caller_id", callerID, "results", len(users))
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id domain.UserID) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}
