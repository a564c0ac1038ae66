package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts requests per key in fixed windows that open on a key's
// first request.
type RateLimiter struct {
	name        string
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	stopOnce sync.Once
	stopCh   chan struct{}
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop.
// name labels the limiter in logs and metrics.
func NewRateLimiter(name string, maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		name:        name,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
		stopCh:      make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow records an attempt for key and reports whether it is within limits.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.entries[key]
	if !ok || now.Sub(entry.windowStart) >= rl.window {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return true
	}

	if entry.count < rl.maxAttempts {
		entry.count++
		return true
	}
	return false
}

// Remaining returns how many attempts key has left in its current window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[key]
	if !ok || rl.now().Sub(entry.windowStart) >= rl.window {
		return rl.maxAttempts
	}
	if entry.count >= rl.maxAttempts {
		return 0
	}
	return rl.maxAttempts - entry.count
}

// TimeUntilReset returns how long until the window for key closes.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[key]
	if !ok {
		return 0
	}

	elapsed := rl.now().Sub(entry.windowStart)
	if elapsed >= rl.window {
		return 0
	}
	return rl.window - elapsed
}

// Stop ends the cleanup loop. The limiter keeps working afterwards.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops entries whose window has closed.
func (rl *RateLimiter) sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, entry := range rl.entries {
		if now.Sub(entry.windowStart) >= rl.window {
			delete(rl.entries, key)
			removed++
		}
	}
	return removed
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// decision is the outcome of one attempt against a limiter.
type decision struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
}

// attemptCounter is a limiter backend: the in-memory RateLimiter or the
// Redis-backed RedisRateLimiter.
type attemptCounter interface {
	take(ctx context.Context, key string) (decision, error)
}

// take records an attempt for key and reports the outcome in one step.
func (rl *RateLimiter) take(_ context.Context, key string) (decision, error) {
	if !rl.Allow(key) {
		return decision{retryAfter: rl.TimeUntilReset(key)}, nil
	}
	return decision{allowed: true, remaining: rl.Remaining(key)}, nil
}

// Limit returns middleware that rejects a client IP once it exhausts the
// limiter.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return limitByIP(rl.name, rl.maxAttempts, rl, rl.logger, next)
}

// limitByIP enforces counter per client IP. Backend failures let the
// request through.
func limitByIP(name string, maxAttempts int, counter attemptCounter, logger *slog.Logger, next http.Handler) http.Handler {
	limit := strconv.Itoa(maxAttempts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)
		w.Header().Set("X-RateLimit-Limit", limit)

		d, err := counter.take(r.Context(), clientIP)
		if err != nil {
			logger.Error("rate limiter unavailable", "limiter", name, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !d.allowed {
			metrics.RateLimited(name)
			logger.Warn("rate limit exceeded",
				"limiter", name,
				"ip", clientIP,
				"path", sanitizePath(r.URL.Path, ""),
				"method", r.Method,
			)

			retryAfter := int(d.retryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"code":    domain.ERATELIMIT,
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Invitation Rate Limiter
// =============================================================================

// invitationCreatesPerHour caps how many invitation emails one IP can send.
const invitationCreatesPerHour = 10

// InvitationRateLimiter limits the endpoints that take a raw invitation
// token, so tokens cannot be guessed by brute force, and the endpoint that
// sends invitation emails.
type InvitationRateLimiter struct {
	tokenLimiter  ipLimiter
	createLimiter ipLimiter
}

// ipLimiter is satisfied by both limiter backends.
type ipLimiter interface {
	Limit(next http.Handler) http.Handler
	Stop()
}

// NewInvitationRateLimiter creates rate limiters for invitation endpoints.
// Accept and reject share maxAttempts per window per IP; creation is
// capped per hour.
func NewInvitationRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *InvitationRateLimiter {
	return &InvitationRateLimiter{
		tokenLimiter:  NewRateLimiter("invitation_token", maxAttempts, window, logger),
		createLimiter: NewRateLimiter("invitation_create", invitationCreatesPerHour, time.Hour, logger),
	}
}

// NewRedisInvitationRateLimiter is NewInvitationRateLimiter with counters
// kept in Redis, so every replica enforces the same budget.
func NewRedisInvitationRateLimiter(client redis.Cmdable, maxAttempts int, window time.Duration, logger *slog.Logger) *InvitationRateLimiter {
	return &InvitationRateLimiter{
		tokenLimiter:  NewRedisRateLimiter(client, "invitation_token", maxAttempts, window, logger),
		createLimiter: NewRedisRateLimiter(client, "invitation_create", invitationCreatesPerHour, time.Hour, logger),
	}
}

// LimitTokens returns middleware for rate limiting accept/reject attempts.
func (a *InvitationRateLimiter) LimitTokens(next http.Handler) http.Handler {
	return a.tokenLimiter.Limit(next)
}

// LimitCreate returns middleware for rate limiting invitation creation.
func (a *InvitationRateLimiter) LimitCreate(next http.Handler) http.Handler {
	return a.createLimiter.Limit(next)
}

// Stop ends the in-memory cleanup loops.
func (a *InvitationRateLimiter) Stop() {
	a.tokenLimiter.Stop()
	a.createLimiter.Stop()
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP returns the host part of RemoteAddr. Forwarding headers are
// applied earlier by ProxyHeaders, and only for trusted proxies.
func getClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
