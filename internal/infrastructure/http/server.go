package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/neverMEH/Personabl-Developed/internal/adapter/handler/http"
	"github.com/neverMEH/Personabl-Developed/internal/config"
	"github.com/neverMEH/Personabl-Developed/internal/middleware/auth"
	"github.com/neverMEH/Personabl-Developed/pkg/logger"
)

// Handlers are the HTTP handlers mounted by the server.
type Handlers struct {
	Webhook      *handlers.WebhookHandler
	Checkout     *handlers.CheckoutHandler
	Coupon       *handlers.CouponHandler
	Subscription *handlers.SubscriptionHandler
	Product      *handlers.ProductHandler
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	handlers Handlers
	auth     auth.JWTConfig
	// ready reports whether dependencies are reachable; nil means always ready.
	ready func(ctx context.Context) error
}

func NewServer(cfg *config.Config, h Handlers, authConfig auth.JWTConfig, ready func(ctx context.Context) error, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	if len(cfg.Server.HTTP.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.HTTP.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}
	if cfg.Server.HTTP.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.HTTP.BodyLimit))
	}

	authConfig.Logger = log
	authConfig.SkipPaths = append(authConfig.SkipPaths, "/health", "/webhook", "/api/v1/webhooks", "/api/v1/products")

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		handlers: h,
		auth:     authConfig,
		ready:    ready,
	}
	s.setupRoutes()
	return s
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Addr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)

	// Webhook routes (outside API versioning, plus a versioned alias)
	s.echo.POST("/webhook", s.handlers.Webhook.HandleWebhook)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/webhooks/stripe", s.handlers.Webhook.HandleWebhook)

	// Public routes
	v1.GET("/products", s.handlers.Product.ListProducts)

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(s.auth))

	protected.POST("/checkout/sessions", s.handlers.Checkout.CreateCheckoutSession)
	protected.POST("/portal/sessions", s.handlers.Checkout.CreatePortalSession)
	protected.GET("/coupons/:code", s.handlers.Coupon.ValidateCoupon)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.GET("", s.handlers.Subscription.ListSubscriptions)
	subscriptions.POST("/:id/cancel", s.handlers.Subscription.CancelSubscription)
	subscriptions.POST("/:id/reactivate", s.handlers.Subscription.ReactivateSubscription)
}

func (s *Server) health(c echo.Context) error {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unavailable",
				"service": s.config.Service.Name,
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.config.Service.Name,
		"version": s.config.Service.Version,
	})
}
