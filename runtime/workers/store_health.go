package workers

import (
	"chat-live/contract"
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var _ contract.Worker = (*StoreHealthWorker)(nil)

// ChatServiceName is the service name reported by the gRPC health endpoint.
const ChatServiceName = "chat.live"

// StoreHealthWorker pings the message store and reflects the result in the
// gRPC health server. The server is serving only while the store answers.
type StoreHealthWorker struct {
	log      *slog.Logger
	store    contract.Pinger
	health   *health.Server
	interval time.Duration
	timeout  time.Duration
}

func NewStoreHealthWorker(log *slog.Logger, store contract.Pinger, health *health.Server, interval time.Duration) *StoreHealthWorker {
	return &StoreHealthWorker{log: log, store: store, health: health, interval: interval, timeout: interval / 2}
}

func (w *StoreHealthWorker) Run(ctx context.Context) error {
	w.check(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
			return ctx.Err()
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *StoreHealthWorker) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.store.Ping(pingCtx); err != nil {
		w.log.Warn("Store unreachable", "error", err)
		w.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	w.setStatus(healthpb.HealthCheckResponse_SERVING)
}

func (w *StoreHealthWorker) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	w.health.SetServingStatus("", status)
	w.health.SetServingStatus(ChatServiceName, status)
}
