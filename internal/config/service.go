package config

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key" validate:"required"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// AllowUnsignedWebhooks accepts events whose signature does not verify. Test use only.
	AllowUnsignedWebhooks bool `mapstructure:"allow_unsigned_webhooks"`
	// APIURL points the client at another backend such as stripe-mock.
	APIURL string `mapstructure:"api_url"`
}

type SupabaseConfig struct {
	ProjectURL string `mapstructure:"project_url"`
	APIKey     string `mapstructure:"api_key"`
	JWTSecret  string `mapstructure:"jwt_secret"`
}
