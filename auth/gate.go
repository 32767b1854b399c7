package auth

import (
	"chat-live/domain"
	"chat-live/errors"
	"context"
	stderrors "errors"
	"net/http"
	"strings"
)

// UserFinder resolves the subject of a valid token.
type UserFinder interface {
	GetUser(ctx context.Context, id domain.UserID) (domain.User, error)
}

// Gate admits a connection only when it carries a valid, unexpired token
// whose subject is a known user.
type Gate struct {
	verifier ITokenVerifier
	users    UserFinder
}

func NewGate(verifier ITokenVerifier, users UserFinder) *Gate {
	return &Gate{verifier: verifier, users: users}
}

func (g *Gate) Admit(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, errors.ErrUnauthenticated
	}
	claims, err := g.verifier.Validate(token)
	if err != nil {
		return domain.User{}, err
	}
	user, err := g.users.GetUser(ctx, claims.UserID)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		return domain.User{}, errors.ErrInvalidToken
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// BearerFromRequest reads the token from the Authorization header, falling back
// to the token query parameter browsers use for websocket upgrades.
func BearerFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		// Expecting the standard "Bearer <token>" format
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
