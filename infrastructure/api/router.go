package api

import (
	"chat-live/auth"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the websocket endpoint, the account and room routes and
// the operational endpoints.
func NewRouter(log *slog.Logger, h *Handler, gate *auth.Gate, socket http.Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.Health)

	// Admission is done by the socket handler itself, before the upgrade
	r.Handle("/ws", socket)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(gate))

			r.Get("/rooms", h.ListRooms)
			r.Get("/rooms/{roomId}", h.GetRoom)
			r.Post("/rooms/direct", h.CreateDirect)
			r.Post("/rooms/group", h.CreateGroup)
			r.Delete("/rooms/{roomId}", h.LeaveRoom)
			r.Get("/rooms/{roomId}/messages", h.History)
			r.Post("/rooms/{roomId}/read", h.MarkAllRead)
			r.Get("/users/search", h.SearchUsers)
			r.Get("/users/{userId}", h.GetUser)
		})
	})

	return r
}
