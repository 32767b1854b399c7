package auth

import (
	"chat-live/domain"
	"chat-live/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireUser(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	users := mocks.NewMockIUserRepository(ctrl)
	manager := NewTokenManager("middleware-secret", time.Hour)
	bob := domain.User{ID: 2, Nickname: "bob"}
	users.EXPECT().GetUser(gomock.Any(), domain.UserID(2)).Return(bob, nil)

	var seen domain.User
	handler := RequireUser(NewGate(manager, users))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	// Without a token the request is refused
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	req.Equal(http.StatusUnauthorized, rec.Code)
	req.JSONEq(`{"message":"authentication required"}`, rec.Body.String())

	// With a token the user reaches the handler
	token, err := manager.Generate(2, nil)
	req.NoError(err)
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	req.Equal(http.StatusNoContent, rec.Code)
	req.Equal(bob, seen)
}
