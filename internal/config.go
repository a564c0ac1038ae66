package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Managed auth backend. Access tokens are HS256 JWTs whose subject is
	// the profile ID. Issuer and audience are checked when set.
	AuthJWTSecret   string
	AuthJWTIssuer   string
	AuthJWTAudience string

	// SMTP Configuration
	EmailProvider string // "smtp" or "log"
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	SMTPFromName  string

	// Application base URL (for email links and billing redirects)
	BaseURL string

	// Proxies whose X-Forwarded-For and X-Real-IP headers are believed.
	// IPs or CIDRs; empty means client IPs come from the socket only.
	TrustedProxies []string

	// AI Provider Configuration
	AIProvider       string // "anthropic" or "mock"
	AnthropicAPIKey  string
	AnthropicModel   string
	AIMaxRetries     int
	AIRetryBaseDelay time.Duration
	AIRequestTimeout time.Duration

	// Account sharing
	InvitationTTL    time.Duration // How long an invitation link stays valid
	InviteRateLimit  int           // Accept/reject attempts per IP per window
	InviteRateWindow time.Duration
	RedisURL         string        // Optional; shares rate limit counters across replicas

	// Background maintenance
	WorkerEnabled       bool
	WorkerInterval      time.Duration
	InvitationRetention time.Duration // How long expired pending invitations are kept

	// Stripe Billing Configuration
	// In development, billing endpoints report "not available" if these are empty.
	StripeSecretKey     string // Stripe API secret key (sk_test_... or sk_live_...)
	StripeWebhookSecret string // Stripe webhook signing secret (whsec_...)

	// Stripe Price IDs for subscription plans
	StripeProMonthlyPriceID     string
	StripeProYearlyPriceID      string
	StripePremiumMonthlyPriceID string
	StripePremiumYearlyPriceID  string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		AuthJWTIssuer:   getEnv("AUTH_JWT_ISSUER", ""),
		AuthJWTAudience: getEnv("AUTH_JWT_AUDIENCE", ""),

		EmailProvider: getEnv("EMAIL_PROVIDER", "smtp"),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@finanzas.app"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Finanzas"),

		// Base URL defaults to localhost for development
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		// AI provider defaults
		AIProvider:       getEnv("AI_PROVIDER", "mock"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		AIMaxRetries:     getEnvInt("AI_MAX_RETRIES", 3),
		AIRetryBaseDelay: getEnvDuration("AI_RETRY_BASE_DELAY", 1*time.Second),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),

		// Sharing defaults
		InvitationTTL:    getEnvDuration("INVITATION_TTL", 7*24*time.Hour),
		InviteRateLimit:  getEnvInt("INVITE_RATE_LIMIT", 10),
		InviteRateWindow: getEnvDuration("INVITE_RATE_WINDOW", 15*time.Minute),
		RedisURL:         getEnv("REDIS_URL", ""),

		// Worker defaults
		WorkerEnabled:       getEnvBool("WORKER_ENABLED", true),
		WorkerInterval:      getEnvDuration("WORKER_INTERVAL", time.Hour),
		InvitationRetention: getEnvDuration("INVITATION_RETENTION", 30*24*time.Hour),

		// Stripe billing (optional)
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		// Stripe price IDs (optional — required when billing is enabled)
		StripeProMonthlyPriceID:     getEnv("STRIPE_PRO_MONTHLY_PRICE_ID", ""),
		StripeProYearlyPriceID:      getEnv("STRIPE_PRO_YEARLY_PRICE_ID", ""),
		StripePremiumMonthlyPriceID: getEnv("STRIPE_PREMIUM_MONTHLY_PRICE_ID", ""),
		StripePremiumYearlyPriceID:  getEnv("STRIPE_PREMIUM_YEARLY_PRICE_ID", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.AuthJWTSecret = os.Getenv("AUTH_JWT_SECRET")
	if cfg.AuthJWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	// Validate AI provider configuration
	if cfg.AIProvider == "anthropic" {
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is 'anthropic'")
		}
	} else if cfg.AIProvider != "mock" {
		return nil, fmt.Errorf("AI_PROVIDER must be either 'anthropic' or 'mock', got: %s", cfg.AIProvider)
	}

	if cfg.EmailProvider != "smtp" && cfg.EmailProvider != "log" {
		return nil, fmt.Errorf("EMAIL_PROVIDER must be either 'smtp' or 'log', got: %s", cfg.EmailProvider)
	}

	if cfg.InvitationTTL <= 0 {
		return nil, fmt.Errorf("INVITATION_TTL must be positive, got: %s", cfg.InvitationTTL)
	}
	if cfg.InviteRateLimit < 1 {
		return nil, fmt.Errorf("INVITE_RATE_LIMIT must be at least 1, got: %d", cfg.InviteRateLimit)
	}
	if cfg.InviteRateWindow <= 0 {
		return nil, fmt.Errorf("INVITE_RATE_WINDOW must be positive, got: %s", cfg.InviteRateWindow)
	}
	if cfg.InvitationRetention < 0 {
		return nil, fmt.Errorf("INVITATION_RETENTION must not be negative, got: %s", cfg.InvitationRetention)
	}

	return cfg, nil
}

// BillingEnabled reports whether Stripe credentials are configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
