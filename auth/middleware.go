package auth

import (
	"chat-live/domain"
	"chat-live/errors"
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

const userKey contextKey = "user"

// RequireUser admits the request through the gate and stores the user in its
// context. Rejected requests get a 401 with a JSON message.
func RequireUser(gate *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := gate.Admit(r.Context(), BearerFromRequest(r))
			if err != nil {
				WriteUnauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey).(domain.User)
	return user, ok
}

func WriteUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": errors.ClientMessage(err)})
}
