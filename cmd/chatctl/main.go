// Command chatctl administers a chat store offline: it creates accounts and
// rooms, issues tokens and dumps raw records.
//
//	chatctl user add --email alice@example.com --nickname alice --password 'S3cret!pass'
//	chatctl room direct --from 1 --to 2
//	chatctl room group --from 1 --title trip --members 2,3
//	chatctl token --user 1
//	chatctl inspect --prefix msg: --limit 20
package main

import (
	"chat-live/auth"
	"chat-live/infrastructure/postgres"
	"chat-live/repositories"
	"chat-live/runtime"
	"chat-live/services"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

const usage = `usage: chatctl <command> [flags]

commands:
  user add      create an account
  room direct   open the direct room of two users
  room group    open a group room
  token         issue a token for a user
  inspect       dump raw badger records
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, closeStore, err := open(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, failure(cfg.Colours, err.Error()))
		os.Exit(1)
	}
	err = a.run(ctx, os.Args[1:])
	closeStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, failure(cfg.Colours, err.Error()))
		os.Exit(1)
	}
}

// app holds what every command needs. badger is nil on the postgres driver
// and tokens is nil when no secret is configured.
type app struct {
	out     io.Writer
	colours bool
	repos   repositories.Repositories
	badger  *repositories.Store
	tokens  *auth.TokenManager
	auth    *services.AuthService
	rooms   *services.RoomService
}

func newApp(out io.Writer, colours bool, log *slog.Logger, repos repositories.Repositories, store *repositories.Store, tokens *auth.TokenManager) *app {
	return &app{
		out:     out,
		colours: colours,
		repos:   repos,
		badger:  store,
		tokens:  tokens,
		auth:    services.NewAuthService(repos.Users, tokens),
		// Nobody is connected to an offline registry: rooms are only persisted
		rooms: services.NewRoomService(log, repos, runtime.NewRegistry()),
	}
}

func open(ctx context.Context, cfg Config) (*app, func(), error) {
	log := logs.GetLoggerFromString(cfg.LogLevel)
	var tokens *auth.TokenManager
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AuthTokenDuration)
	}

	if cfg.StoreDriver == "postgres" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewStore(pool, log)
		if err = store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		repos := postgres.NewPostgresRepositories(store, nil)
		return newApp(os.Stdout, cfg.Colours, log, repos, nil, tokens), store.Close, nil
	}

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, nil, fmt.Errorf("database opening failed: %w", err)
	}
	store, err := repositories.NewStore(db, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	repos := repositories.NewBadgerRepositories(store, log, nil)
	return newApp(os.Stdout, cfg.Colours, log, repos, store, tokens), func() {
		_ = store.Close()
		_ = db.Close()
	}, nil
}
