package grpc

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpchandler "github.com/neverMEH/Personabl-Developed/internal/adapter/handler/grpc"
	"github.com/neverMEH/Personabl-Developed/internal/config"
	"github.com/neverMEH/Personabl-Developed/pkg/logger"
)

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	health   *grpchandler.HealthHandler
	server   *grpc.Server
	listener net.Listener
}

func NewServer(cfg *config.Config, health *grpchandler.HealthHandler, log *zap.Logger) *Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(log)),
		grpc.ChainStreamInterceptor(logger.NewGrpcStreamServerInterceptor(log)),
	)
	healthpb.RegisterHealthServer(server, health.Server())
	if !cfg.Service.IsProduction() {
		reflection.Register(server)
	}

	return &Server{
		config: cfg,
		logger: log,
		health: health,
		server: server,
	}
}

func (s *Server) Start() error {
	addr := s.config.Server.GRPC.Addr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.logger.Info("Starting gRPC server", zap.String("address", addr))

	return s.server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
