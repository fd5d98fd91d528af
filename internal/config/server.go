package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

type HTTPConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port" validate:"required"`
	BodyLimit    string   `mapstructure:"body_limit"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (c GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a gRPC listener should be started.
func (c GRPCConfig) Enabled() bool {
	return c.Port > 0
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// TimeoutConfig bounds every outbound call.
type TimeoutConfig struct {
	Datastore time.Duration `mapstructure:"datastore" validate:"gt=0"`
	Provider  time.Duration `mapstructure:"provider" validate:"gt=0"`
}

type CheckoutConfig struct {
	ProfileWait ProfileWaitConfig `mapstructure:"profile_wait"`
}

// ProfileWaitConfig bounds the wait for a freshly signed-up user's profile row.
type ProfileWaitConfig struct {
	Attempts       int           `mapstructure:"attempts" validate:"gte=1"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}
