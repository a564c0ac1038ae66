package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal"
	"github.com/artuino0/personal-finance-app-sub000/internal/ai"
	"github.com/artuino0/personal-finance-app-sub000/internal/ai/anthropic"
	"github.com/artuino0/personal-finance-app-sub000/internal/ai/mock"
	"github.com/artuino0/personal-finance-app-sub000/internal/billing"
	"github.com/artuino0/personal-finance-app-sub000/internal/email"
	"github.com/artuino0/personal-finance-app-sub000/internal/handler"
	"github.com/artuino0/personal-finance-app-sub000/internal/metrics"
	"github.com/artuino0/personal-finance-app-sub000/internal/middleware"
	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
	"github.com/artuino0/personal-finance-app-sub000/internal/service"
	"github.com/artuino0/personal-finance-app-sub000/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	store := repository.NewStore(db)

	// Initialize collaborators
	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return fmt.Errorf("email initialization failed: %w", err)
	}

	provider, err := newAIProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("ai provider initialization failed: %w", err)
	}

	var billingService billing.Service
	if cfg.BillingEnabled() {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			ProMonthlyPriceID:     cfg.StripeProMonthlyPriceID,
			ProYearlyPriceID:      cfg.StripeProYearlyPriceID,
			PremiumMonthlyPriceID: cfg.StripePremiumMonthlyPriceID,
			PremiumYearlyPriceID:  cfg.StripePremiumYearlyPriceID,
		})
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing disabled: STRIPE_SECRET_KEY or STRIPE_WEBHOOK_SECRET not set")
	}

	// Initialize services
	profileService := service.NewProfileService(store, logger)
	quotaService := service.NewQuotaService(store, logger)
	sharingService := service.NewSharingService(store, quotaService, mailer, logger, cfg.InvitationTTL)
	resourceService := service.NewResourceService(quotaService, sharingService, logger)
	analysisService := service.NewAnalysisService(store, provider, logger)

	// Start background maintenance
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Interval = cfg.WorkerInterval
		w, err := worker.New(workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		w.Register(worker.NewInvitationPurgeTask(sharingService, cfg.InvitationRetention, logger))
		w.Start(ctx)
		defer w.Stop()
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	verifier := middleware.NewTokenVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer, cfg.AuthJWTAudience)
	authMw := middleware.NewAuthMiddleware(verifier, sharingService, logger)
	inviteLimiter, closeLimiter, err := newInvitationRateLimiter(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}
	defer closeLimiter()
	proxyHeaders, err := middleware.NewProxyHeaders(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	if !metricsAuth.Enabled() {
		logger.Warn("Metrics endpoint is unprotected: METRICS_USERNAME and METRICS_PASSWORD not set")
	}

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(quotaService, sharingService, resourceService, logger)
	sharingHandler := handler.NewSharingHandler(sharingService, profileService, mailer, logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, profileService, logger)
	billingHandler := handler.NewBillingHandler(billingService, profileService, cfg.BaseURL, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, profileService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			logger.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Create middleware stacks for protected routes
	requireIdentity := authMw.RequireIdentity
	withAccount := middleware.Stack(authMw.RequireIdentity, authMw.ActiveAccount)

	accountHandler.RegisterRoutes(mux, withAccount)
	sharingHandler.RegisterRoutes(mux, handler.SharingRoutes{
		Protected:   requireIdentity,
		LimitTokens: inviteLimiter.LimitTokens,
		LimitCreate: inviteLimiter.LimitCreate,
	})
	analysisHandler.RegisterRoutes(mux, requireIdentity)
	billingHandler.RegisterRoutes(mux, requireIdentity)

	// Stripe calls this directly; authenticated by signature
	webhookHandler.RegisterRoutes(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	root := middleware.Stack(proxyHeaders.Handler, metrics.Middleware, loggingMw.Handler, securityMw.Handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// AI analyses can take close to the provider timeout
		WriteTimeout: cfg.AIRequestTimeout + 30*time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newInvitationRateLimiter keeps invitation counters in Redis when
// REDIS_URL is set and in process memory otherwise. The returned func
// releases whichever backend was built.
func newInvitationRateLimiter(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*middleware.InvitationRateLimiter, func(), error) {
	if cfg.RedisURL == "" {
		l := middleware.NewInvitationRateLimiter(cfg.InviteRateLimit, cfg.InviteRateWindow, logger)
		return l, l.Stop, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("Invitation rate limits shared through Redis", "addr", opts.Addr)

	l := middleware.NewRedisInvitationRateLimiter(client, cfg.InviteRateLimit, cfg.InviteRateWindow, logger)
	return l, func() { _ = client.Close() }, nil
}

// newMailer selects the invitation email backend from configuration.
func newMailer(cfg *internal.Config, logger *slog.Logger) (email.EmailService, error) {
	if cfg.EmailProvider == "log" {
		logger.Warn("Invitation emails are logged, not sent")
		return email.NewLogEmailService(cfg.BaseURL, logger), nil
	}
	return email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.BaseURL, cfg.InvitationTTL, logger)
}

// newAIProvider selects the analysis backend from configuration.
func newAIProvider(cfg *internal.Config, logger *slog.Logger) (ai.AIProvider, error) {
	switch cfg.AIProvider {
	case "anthropic":
		p, err := anthropic.New(anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("AI provider ready", "provider", "anthropic", "model", cfg.AnthropicModel)
		return p, nil
	default:
		logger.Warn("Using mock AI provider")
		return mock.New(logger), nil
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
