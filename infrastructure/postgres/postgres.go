// Package postgres is the relational backend of the live core. It implements
// the same repository contracts as the embedded badger store on top of a pgx
// connection pool.
package postgres

import (
	"chat-live/repositories"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Store owns the pool shared by every postgres repository.
type Store struct {
	pool    *pgxpool.Pool
	log     *slog.Logger
	nowFunc func() time.Time
}

// Connect creates a pgx connection pool using the provided DSN and verifies the connection with a ping.
func Connect(ctx context.Context, dsn string, opts ...func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.MaxConnLifetime == 0 {
		cfg.MaxConnLifetime = 60 * time.Minute
	}
	if cfg.HealthCheckPeriod == 0 {
		cfg.HealthCheckPeriod = 1 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// WithMaxConns overrides the pool size.
func WithMaxConns(n int32) func(*pgxpool.Config) {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

func NewStore(pool *pgxpool.Pool, log *slog.Logger) *Store {
	return &Store{
		pool:    pool,
		log:     log,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSchema creates the tables and indexes when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	s.log.Info("Database schema ready")
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// now is rounded up to the column precision so that a row written after a
// horizon was taken always compares strictly later than it.
func (s *Store) now() time.Time {
	t := s.nowFunc()
	if rounded := t.Truncate(time.Microsecond); rounded.Before(t) {
		return rounded.Add(time.Microsecond)
	}
	return t
}

// horizon is rounded down to the column precision.
func horizon(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func NewPostgresRepositories(store *Store, limitMessages *int) repositories.Repositories {
	return repositories.Repositories{
		Users:       NewUserRepository(store),
		Rooms:       NewRoomRepository(store),
		Memberships: NewMembershipRepository(store),
		Messages:    NewMessageRepository(store, limitMessages),
	}
}

// normalizeDSN converts known non-pgx DSN variants to a pgx-compatible DSN.
func normalizeDSN(dsn string) string {
	s := strings.TrimSpace(dsn)
	s = strings.Replace(s, "postgresql+asyncpg://", "postgresql://", 1)
	s = strings.Replace(s, "postgres+asyncpg://", "postgres://", 1)
	s = strings.Replace(s, "postgresql+pgx://", "postgresql://", 1)
	s = strings.Replace(s, "postgres+pgx://", "postgres://", 1)
	return s
}
