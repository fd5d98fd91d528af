package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "billing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const baseYAML = `
service:
  environment: staging
stripe:
  secret_key: sk_test_123
  webhook_secret: whsec_123
supabase:
  jwt_secret: local-jwt-secret
database:
  host: db.internal
  name: billing
timeouts:
  datastore: 2s
`

func TestLoadConfigFrom(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Service.Environment)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Datastore)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Provider)
	assert.Equal(t, 5, cfg.Checkout.ProfileWait.Attempts)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTP.Addr())
	assert.Equal(t, "billing.subscriptions", cfg.Redis.Channel)
	assert.False(t, cfg.Service.IsProduction())
}

func TestLoadConfigFrom_EnvOverride(t *testing.T) {
	t.Setenv("BILLING_STRIPE_SECRET_KEY", "sk_test_env")
	t.Setenv("BILLING_DATABASE_PORT", "6543")

	cfg, err := LoadConfigFrom(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "sk_test_env", cfg.Stripe.SecretKey)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestLoadConfigFrom_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing stripe key",
			yaml: `
stripe:
  webhook_secret: whsec_1
supabase:
  jwt_secret: s
`,
			want: "SecretKey",
		},
		{
			name: "unsigned webhooks in production",
			yaml: `
service:
  environment: production
stripe:
  secret_key: sk_live_1
  allow_unsigned_webhooks: true
supabase:
  jwt_secret: s
`,
			want: "stripe.allow_unsigned_webhooks must not be set in production",
		},
		{
			name: "missing webhook secret",
			yaml: `
stripe:
  secret_key: sk_test_1
supabase:
  jwt_secret: s
`,
			want: "stripe.webhook_secret is required",
		},
		{
			name: "no way to verify tokens",
			yaml: `
stripe:
  secret_key: sk_test_1
  webhook_secret: whsec_1
supabase:
  project_url: https://abc.supabase.co
`,
			want: "supabase.jwt_secret or supabase.project_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFrom(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigFrom_UnsignedWebhooksWithoutSecret(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, `
stripe:
  secret_key: sk_test_1
  allow_unsigned_webhooks: true
supabase:
  jwt_secret: s
`))
	require.NoError(t, err)
	assert.True(t, cfg.Stripe.AllowUnsignedWebhooks)
	assert.Empty(t, cfg.Stripe.WebhookSecret)
}

func TestLoadConfigFrom_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
