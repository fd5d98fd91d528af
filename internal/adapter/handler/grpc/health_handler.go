package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported by the health service besides the overall "" entry.
const ServiceName = "billing.v1.Billing"

// HealthHandler keeps the gRPC health status in line with a dependency probe.
type HealthHandler struct {
	server   *health.Server
	probe    func(ctx context.Context) error
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthHandler(probe func(ctx context.Context) error, interval time.Duration, logger *zap.Logger) *HealthHandler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthHandler{
		server:   health.NewServer(),
		probe:    probe,
		interval: interval,
		logger:   logger,
	}
}

// Server returns the grpc.health.v1.Health implementation to register.
func (h *HealthHandler) Server() *health.Server {
	return h.server
}

// Check runs the probe once and publishes the result.
func (h *HealthHandler) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.probe != nil {
		ctx, cancel := context.WithTimeout(ctx, h.interval)
		err := h.probe(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("Health probe failed", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run probes until ctx is done, then reports NOT_SERVING.
func (h *HealthHandler) Run(ctx context.Context) {
	h.Check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
