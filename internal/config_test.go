package internal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/finanzas_test")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
}

func TestNewConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "mock", cfg.AIProvider)
	assert.Equal(t, "smtp", cfg.EmailProvider)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, 7*24*time.Hour, cfg.InvitationTTL)
	assert.Equal(t, 10, cfg.InviteRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.InviteRateWindow)
	assert.True(t, cfg.WorkerEnabled)
	assert.Equal(t, time.Hour, cfg.WorkerInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.InvitationRetention)
	assert.False(t, cfg.BillingEnabled())
}

func TestNewConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://finanzas.example.com/")
	t.Setenv("INVITATION_TTL", "48h")
	t.Setenv("WORKER_ENABLED", "false")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_1")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_1")
	t.Setenv("STRIPE_PRO_MONTHLY_PRICE_ID", "price_pro_m")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.0.2.10 ")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://finanzas.example.com", cfg.BaseURL)
	assert.Equal(t, 48*time.Hour, cfg.InvitationTTL)
	assert.False(t, cfg.WorkerEnabled)
	assert.Equal(t, "price_pro_m", cfg.StripeProMonthlyPriceID)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.TrustedProxies)
	assert.True(t, cfg.BillingEnabled())
}

func TestNewConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"missing jwt secret", map[string]string{"AUTH_JWT_SECRET": ""}, "AUTH_JWT_SECRET"},
		{"anthropic without key", map[string]string{"AI_PROVIDER": "anthropic", "ANTHROPIC_API_KEY": ""}, "ANTHROPIC_API_KEY"},
		{"unknown provider", map[string]string{"AI_PROVIDER": "oracle"}, "AI_PROVIDER"},
		{"unknown email provider", map[string]string{"EMAIL_PROVIDER": "carrier-pigeon"}, "EMAIL_PROVIDER"},
		{"zero rate limit", map[string]string{"INVITE_RATE_LIMIT": "0"}, "INVITE_RATE_LIMIT"},
		{"zero rate window", map[string]string{"INVITE_RATE_WINDOW": "0s"}, "INVITE_RATE_WINDOW"},
		{"negative retention", map[string]string{"INVITATION_RETENTION": "-1h"}, "INVITATION_RETENTION"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "WARN")

	logger.Info("dropped")
	logger.Warn("kept", "key", "value")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "finanzas-api", line["service"])
	assert.Equal(t, "value", line["key"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" Info ":  slog.LevelInfo,
		"warn+2":  slog.LevelWarn + 2,
		"ERROR":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}
