package workers

import (
	"chat-live/mocks"
	"context"
	"fmt"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"log/slog"
	"testing"
	"time"
)

func TestStoreHealthWorker_Reflects_Store_State(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockPinger(ctrl)
	server := health.NewServer()
	worker := NewStoreHealthWorker(slog.Default(), store, server, time.Second)

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := server.Check(t.Context(), &healthpb.HealthCheckRequest{Service: ChatServiceName})
		req.NoError(err)
		return resp.GetStatus()
	}

	// Given the store answers
	store.EXPECT().Ping(gomock.Any()).Return(nil)
	worker.check(t.Context())
	req.Equal(healthpb.HealthCheckResponse_SERVING, status())

	// When it stops answering
	store.EXPECT().Ping(gomock.Any()).Return(fmt.Errorf("connection refused"))
	worker.check(t.Context())

	// Then the service is reported down
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, status())
}

func TestStoreHealthWorker_Stops_Serving_On_Shutdown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockPinger(ctrl)
	store.EXPECT().Ping(gomock.Any()).Return(nil).AnyTimes()
	server := health.NewServer()
	worker := NewStoreHealthWorker(slog.Default(), store, server, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	err := worker.Run(ctx)
	req.ErrorIs(err, context.DeadlineExceeded)

	resp, err := server.Check(t.Context(), &healthpb.HealthCheckRequest{Service: ChatServiceName})
	req.NoError(err)
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
