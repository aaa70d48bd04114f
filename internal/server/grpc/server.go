// Package grpc runs the gRPC side of the service: the standard health
// service, reporting SERVING only while storage answers.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// ServiceName is the health entry for the auth service itself. The empty
// name mirrors it for clients that ask about the whole server.
const ServiceName = "gophauth.Auth"

// Pinger reports whether storage is reachable.
type Pinger func(ctx context.Context) error

type GRPCServer struct {
	address  string
	logger   logging.Logger
	ping     Pinger
	interval time.Duration
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, ping Pinger) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		ping:     ping,
		interval: 5 * time.Second,
		health:   health.NewServer(),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.setStatus(ctx, s.check(ctx))
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}

func (s *GRPCServer) check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	if s.ping == nil {
		return healthpb.HealthCheckResponse_SERVING
	}
	if err := s.ping(ctx); err != nil {
		s.logger.Warn(ctx, "storage ping failed", "error", err)
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

func (s *GRPCServer) setStatus(ctx context.Context, st healthpb.HealthCheckResponse_ServingStatus) {
	if ctx.Err() != nil {
		return
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *GRPCServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.setStatus(ctx, s.check(ctx))
		}
	}
}
