package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/adsops/adsops/application/port/inbound"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/infrastructure/http/response"
	"github.com/adsops/adsops/infrastructure/service/logger"
)

// RateLimitPolicy bounds confirmation attempts per actor
type RateLimitPolicy struct {
	Attempts      int
	Window        time.Duration
	BlockDuration time.Duration
}

type RateLimitMiddleware struct {
	rateLimitService inbound.RateLimitService
	policy           RateLimitPolicy
	logger           logger.Logger
}

func NewRateLimitMiddleware(rateLimitService inbound.RateLimitService, policy RateLimitPolicy, log logger.Logger) *RateLimitMiddleware {
	if policy.Attempts <= 0 {
		policy.Attempts = 30
	}
	if policy.Window <= 0 {
		policy.Window = time.Minute
	}
	if policy.BlockDuration <= 0 {
		policy.BlockDuration = 15 * time.Minute
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		policy:           policy,
		logger:           log,
	}
}

// LimitConfirmations counts every confirmation attempt, successful or not,
// against the authenticated actor (or the client IP when there is none).
// Store errors fail open.
func (m *RateLimitMiddleware) LimitConfirmations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitService == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		traceID := logger.CorrelationIDFromContext(ctx)
		clientIP := getClientIP(r)

		key := "confirm:ip:" + clientIP
		if actor := ActorFromContext(ctx); actor != "" {
			key = "confirm:actor:" + actor
		}
		fields := map[string]interface{}{
			"ip":   clientIP,
			"path": r.URL.Path,
			"key":  key,
		}

		isBlocked, err := m.rateLimitService.IsBlocked(ctx, key)
		if err != nil {
			m.logger.Error(ctx, "Failed to check block status", err, fields)
		}
		if isBlocked {
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_blocked", "MEDIUM", fields)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(m.policy.BlockDuration.Seconds())))
			response.AppError(w, domainerr.NewRateLimitedError("confirmation attempts blocked"), traceID)
			return
		}

		allowed, err := m.rateLimitService.CheckLimit(ctx, key, m.policy.Attempts, m.policy.Window)
		if err != nil {
			m.logger.Error(ctx, "Failed to check rate limit", err, fields)
			allowed = true
		}
		if !allowed {
			if err := m.rateLimitService.Block(ctx, key, m.policy.BlockDuration, "Confirmation rate limit exceeded"); err != nil {
				m.logger.Error(ctx, "Failed to block key", err, fields)
			}
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "HIGH", fields)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(m.policy.BlockDuration.Seconds())))
			response.AppError(w, domainerr.NewRateLimitedError("too many confirmation attempts"), traceID)
			return
		}

		if err := m.rateLimitService.Increment(ctx, key, m.policy.Window); err != nil {
			m.logger.Error(ctx, "Failed to increment rate limit", err, fields)
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts client IP from request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
