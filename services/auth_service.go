package services

import (
	"chat-live/auth"
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

type IAuthService interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Register(ctx context.Context, email, nickname, password string) (Session, error)
}

type TokenIssuer interface {
	Generate(userID domain.UserID, roles []string) (string, error)
}

type Token string

// Session is what a client receives after registering or logging in.
type Session struct {
	Token Token         `json:"token"`
	User  domain.Sender `json:"user"`
}

type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         TokenIssuer
}

func NewAuthService(repo repositories.IUserRepository, issuer TokenIssuer) *AuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(ctx context.Context, email, nickname, password string) (Session, error) {
	valReq := auth.RegisterRequest{
		Email:    strings.TrimSpace(email),
		Nickname: strings.TrimSpace(nickname),
		Password: password,
	}

	// 1. Validate business rules before any expensive cryptographic operation
	if err := auth.ValidateRegister(valReq); err != nil {
		return Session{}, err
	}

	// 2. Hash in the service layer so the repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash
	user, err := s.userRepository.CreateUser(ctx, domain.User{
		Email:        valReq.Email,
		Nickname:     valReq.Nickname,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		return Session{}, err // ErrUserAlreadyExists if the email is taken
	}

	// 4. Issue the initial session token
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, email)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		// Same error as a wrong password to prevent user enumeration
		return Session{}, errors.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user domain.User) (Session, error) {
	token, err := s.issuer.Generate(user.ID, user.Roles)
	if err != nil {
		return Session{}, errors.ErrTokenGeneration
	}
	return Session{Token: Token(token), User: user.Sender()}, nil
}
