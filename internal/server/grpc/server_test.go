package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

func startBuf(t *testing.T, s *GRPCServer) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after cancel")
		}
	})
	return healthpb.NewHealthClient(conn)
}

func TestHealth_Serving(t *testing.T) {
	s := NewGRPCServer("", logging.NewNop(), func(context.Context) error { return nil })
	client := startBuf(t, s)

	for _, svc := range []string{"", ServiceName} {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	}

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealth_FollowsStorage(t *testing.T) {
	var down atomic.Bool
	down.Store(true)

	s := NewGRPCServer("", logging.NewNop(), func(context.Context) error {
		if down.Load() {
			return errors.New("connection refused")
		}
		return nil
	})
	s.interval = 20 * time.Millisecond
	client := startBuf(t, s)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	down.Store(false)
	assert.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:99999", logging.NewNop(), nil)
	assert.Error(t, s.Run(context.Background()))
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := NewGRPCServer("", logging.NewNop(), nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}

	resp, err := s.loggingInterceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	want := status.Error(codes.Unavailable, "down")
	_, err = s.loggingInterceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		return nil, want
	})
	assert.Equal(t, want, err)
}
