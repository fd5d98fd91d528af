package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/neverMEH/Personabl-Developed/pkg/config"
	"github.com/neverMEH/Personabl-Developed/pkg/logger"
)

const (
	serviceName = "billing"
	envPrefix   = "BILLING"
)

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
}

// LoadConfig reads configs/billing.yaml (or CONFIG_PATH) with BILLING_* env overrides.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom reads the config at path, falling back to CONFIG_PATH when path is empty.
func LoadConfigFrom(path string) (*Config, error) {
	loaded, err := config.Load(config.Options{
		ServiceName: serviceName,
		EnvPrefix:   envPrefix,
		Path:        path,
		Defaults:    defaults(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := loaded.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required settings and rejects unsafe combinations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Stripe.AllowUnsignedWebhooks && c.Service.IsProduction() {
		return fmt.Errorf("invalid config: stripe.allow_unsigned_webhooks must not be set in production")
	}

	if !c.Stripe.AllowUnsignedWebhooks && c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("invalid config: stripe.webhook_secret is required unless stripe.allow_unsigned_webhooks is set")
	}

	if c.Supabase.JWTSecret == "" && (c.Supabase.ProjectURL == "" || c.Supabase.APIKey == "") {
		return fmt.Errorf("invalid config: supabase.jwt_secret or supabase.project_url with supabase.api_key is required")
	}

	return nil
}

func (s ServiceConfig) IsProduction() bool {
	env := strings.ToLower(s.Environment)
	return env == "production" || env == "prod"
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.name":        "billing",
		"service.environment": "development",
		"service.version":     "dev",

		"stripe.secret_key":              "",
		"stripe.webhook_secret":          "",
		"stripe.allow_unsigned_webhooks": false,
		"stripe.api_url":                 "",

		"supabase.project_url": "",
		"supabase.api_key":     "",
		"supabase.jwt_secret":  "",

		"database.host":               "localhost",
		"database.port":               5432,
		"database.name":               "postgres",
		"database.user":               "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     20,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "30m",
		"database.conn_max_idle_time": "5m",
		"database.log_level":          "warn",
		"database.slow_threshold":     "500ms",
		"database.auto_migrate":       true,

		"server.http.host":          "0.0.0.0",
		"server.http.port":          8080,
		"server.http.body_limit":    "1M",
		"server.http.allow_origins": []string{"*"},
		"server.grpc.host":          "0.0.0.0",
		"server.grpc.port":          9090,

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.file_path":   "",
		"log.development": false,

		"redis.addr":     "",
		"redis.password": "",
		"redis.db":       0,
		"redis.channel":  "billing.subscriptions",

		"timeouts.datastore": "5s",
		"timeouts.provider":  "10s",

		"checkout.profile_wait.attempts":        5,
		"checkout.profile_wait.initial_backoff": "100ms",
		"checkout.profile_wait.max_backoff":     "2s",
	}
}
