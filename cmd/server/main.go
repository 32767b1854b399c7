package main

import (
	"chat-live/auth"
	"chat-live/contract"
	"chat-live/infrastructure/api"
	"chat-live/infrastructure/postgres"
	"chat-live/infrastructure/ws"
	"chat-live/repositories"
	"chat-live/runtime"
	"chat-live/runtime/workers"
	"chat-live/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpclog "github.com/mama165/sdk-go/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups (store, pool) run before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Store
	repos, pinger, closeStore, err := openStore(ctx, config, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer closeStore()

	// 3. Supervision & Orchestration
	healthServer := health.NewServer()
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewStoreHealthWorker(logger, pinger, healthServer, config.HealthInterval),
		workers.NewProcessStatsWorker(logger, config.StatsInterval),
	)
	registry := runtime.NewRegistry()
	fanout := runtime.NewFanout(logger, registry, config.SinkTimeout)
	orchestrator := runtime.NewOrchestrator(logger, sup, config.NumberOfWorkers, config.BufferSize)
	sup.Add(workers.NewChannelCapacityWorker(logger, orchestrator.Channels(), config.StatsInterval))
	if err = orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed to start: %w", err)
	}
	defer orchestrator.Stop()

	// 4. Services & transports
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	gate := auth.NewGate(tokens, repos.Users)
	core := services.NewCore(logger, repos, registry, orchestrator, fanout)
	authService := services.NewAuthService(repos.Users, tokens)
	socket := ws.NewSocketHandler(logger, gate, core.Chat, config.ConnectionBufferSize, config.InflightTimeout, config.Origins())
	handler := api.NewHandler(logger, authService, core, pinger)
	router := api.NewRouter(logger, handler, gate, socket, config.Origins())

	errChan := make(chan error, 2)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpclog.UnaryLoggingInterceptor(logger)))
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	go func() {
		logger.Info("Starting gRPC health server", "address", grpcAddress)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 5. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 6. Graceful shutdown
	logger.Info("Shutting down gracefully...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

// openStore opens the configured backend and returns its repositories, a
// pinger for health checks and the cleanup to run on exit.
func openStore(ctx context.Context, config Config, logger *slog.Logger) (repositories.Repositories, contract.Pinger, func(), error) {
	if config.StoreDriver == driverPostgres {
		pool, err := postgres.Connect(ctx, config.DatabaseURL, postgres.WithMaxConns(int32(config.DatabaseMaxConns)))
		if err != nil {
			return repositories.Repositories{}, nil, nil, err
		}
		store := postgres.NewStore(pool, logger)
		if err = store.EnsureSchema(ctx); err != nil {
			store.Close()
			return repositories.Repositories{}, nil, nil, err
		}
		logger.Info("Using postgres store")
		return postgres.NewPostgresRepositories(store, config.LimitMessages), store, func() {
			logger.Info("Closing postgres pool...")
			store.Close()
		}, nil
	}

	db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
	if err != nil {
		return repositories.Repositories{}, nil, nil, fmt.Errorf("database opening failed: %w", err)
	}
	store, err := repositories.NewStore(db, logger)
	if err != nil {
		_ = db.Close()
		return repositories.Repositories{}, nil, nil, err
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, recordMapper)
	}
	logger.Info("Using badger store", "path", config.BadgerFilepath)
	return repositories.NewBadgerRepositories(store, logger, config.LimitMessages), store, func() {
		logger.Info("Closing BadgerDB...")
		_ = store.Close()
		_ = db.Close()
	}, nil
}

func buildBadgerOpts(ctx context.Context, config Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

func recordMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	row.Type, row.Detail = repositories.Describe(key, val)
	return row
}
