// Package grpc runs lip's admin gRPC endpoint: the standard health service,
// reflection outside prod and gRPC metrics.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/lip/internal/logging"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	address string
	logger  logging.Logger
	health  *health.Server
	srv     *grpc.Server
}

// NewServer builds the server. Reflection is registered only for the local
// and dev environments.
func NewServer(address, env string, l logging.Logger) *Server {
	s := &Server{
		address: address,
		logger:  l.With("module", "grpc_server"),
		health:  health.NewServer(),
	}

	s.srv = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			s.recoverInterceptor,
			s.loggingInterceptor,
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	)

	healthpb.RegisterHealthServer(s.srv, s.health)
	if env == logging.EnvLocal || env == logging.EnvDev {
		reflection.Register(s.srv)
	}
	grpc_prometheus.Register(s.srv)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve reports SERVING while it accepts on lis and NOT_SERVING once ctx is
// done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		s.srv.GracefulStop()
	}()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
