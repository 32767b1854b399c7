package services

import (
	"chat-live/domain"
	"chat-live/domain/event"
	"chat-live/repositories"
	"chat-live/runtime"
	"chat-live/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// recorder is a live handle keeping every event it was given.
type recorder struct {
	mu       sync.Mutex
	events   []event.DomainEvent
	replaced bool
}

func (r *recorder) Consume(_ context.Context, e event.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Replaced() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced = true
}

func (r *recorder) Events() []event.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.DomainEvent(nil), r.events...)
}

func eventsOf[T event.DomainEvent](r *recorder) []T {
	var out []T
	for _, e := range r.Events() {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

type fixture struct {
	repos    repositories.Repositories
	registry *runtime.Registry
	chat     *ChatService
	rooms    *RoomService
	history  *HistoryService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store, err := repositories.NewStore(db, log)
	req.NoError(err)
	limit := 50
	repos := repositories.NewBadgerRepositories(store, log, &limit)

	registry := runtime.NewRegistry()
	fanout := runtime.NewFanout(log, registry, time.Second)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), 4, 16)
	ctx, cancel := context.WithCancel(context.Background())
	req.NoError(orchestrator.Start(ctx))

	t.Cleanup(func() {
		cancel()
		orchestrator.Stop()
		_ = store.Close()
		_ = db.Close()
	})

	core := NewCore(log, repos, registry, orchestrator, fanout)
	return &fixture{
		repos:    repos,
		registry: registry,
		chat:     core.Chat,
		rooms:    core.Rooms,
		history:  core.History,
		users:    core.Users,
	}
}

func (f *fixture) user(t *testing.T, nickname string) domain.User {
	t.Helper()
	user, err := f.repos.Users.CreateUser(t.Context(), domain.User{
		Email:    fmt.Sprintf("%s@example.com", nickname),
		Nickname: nickname,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) connect(t *testing.T, user domain.User) *recorder {
	t.Helper()
	sink := &recorder{}
	require.NoError(t, f.chat.Connect(t.Context(), user, sink))
	return sink
}
