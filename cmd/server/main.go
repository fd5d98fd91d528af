package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	grpchandler "github.com/neverMEH/Personabl-Developed/internal/adapter/handler/grpc"
	handlers "github.com/neverMEH/Personabl-Developed/internal/adapter/handler/http"
	"github.com/neverMEH/Personabl-Developed/internal/adapter/supabase"
	"github.com/neverMEH/Personabl-Developed/internal/app"
	"github.com/neverMEH/Personabl-Developed/internal/config"
	grpcServer "github.com/neverMEH/Personabl-Developed/internal/infrastructure/grpc"
	httpServer "github.com/neverMEH/Personabl-Developed/internal/infrastructure/http"
	"github.com/neverMEH/Personabl-Developed/internal/middleware/auth"
	"github.com/neverMEH/Personabl-Developed/pkg/logger"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthProbeInterval = 10 * time.Second
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger = zapLogger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment))

	if cfg.Stripe.AllowUnsignedWebhooks {
		zapLogger.Warn("Unsigned webhooks are accepted; do not use outside tests")
	}

	application, err := app.New(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			zapLogger.Error("Failed to close application", zap.Error(err))
		}
	}()

	authConfig := auth.JWTConfig{Secret: cfg.Supabase.JWTSecret}
	if authConfig.Secret == "" {
		authConfig.Verifier = supabase.NewAuthClient(cfg.Supabase.ProjectURL, cfg.Supabase.APIKey, cfg.Timeouts.Provider, zapLogger)
	}

	services := application.Services
	httpSrv := httpServer.NewServer(cfg, httpServer.Handlers{
		Webhook:      handlers.NewWebhookHandler(services.Webhook, zapLogger),
		Checkout:     handlers.NewCheckoutHandler(services.Checkout, zapLogger),
		Coupon:       handlers.NewCouponHandler(services.Coupon, zapLogger),
		Subscription: handlers.NewSubscriptionHandler(services.Subscription, zapLogger),
		Product:      handlers.NewProductHandler(services.Catalog, zapLogger),
	}, authConfig, application.Ready, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpSrv.Start()
	})

	var grpcSrv *grpcServer.Server
	if cfg.Server.GRPC.Enabled() {
		health := grpchandler.NewHealthHandler(application.Ready, healthProbeInterval, zapLogger)
		grpcSrv = grpcServer.NewServer(cfg, health, zapLogger)

		g.Go(func() error {
			health.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return grpcSrv.Start()
		})
	}

	// Wait for a signal or the first server failure, then stop everything.
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if grpcSrv != nil {
			if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
				zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
			}
		}
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
		return
	}

	zapLogger.Info("Servers shut down successfully")
}
