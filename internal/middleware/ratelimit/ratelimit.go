// Package ratelimit provides per-client rate limiting middleware using token bucket algorithm.
// A client is the account of a validated API key, or the client IP otherwise.
// Transaction submissions (POST, PUT, DELETE) may draw from a second, smaller bucket.
package ratelimit

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pendergraft/zoppel/internal/middleware/realip"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Enabled enables rate limiting
	Enabled bool
	// RequestsPerMin is the number of requests allowed per minute per client
	RequestsPerMin int
	// BurstSize is the maximum burst size
	BurstSize int
	// CleanupMinutes is how often to clean up stale entries
	CleanupMinutes int
	// WriteRequestsPerMin limits mutating requests per client on top of
	// RequestsPerMin. Zero disables the write limit.
	WriteRequestsPerMin int
	// WriteBurstSize is the burst of the write limit
	WriteBurstSize int
}

// clientLimiter tracks a rate limiter and its last access time
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter manages per-client rate limiters
type RateLimiter struct {
	mu         sync.RWMutex
	limiters   map[string]*clientLimiter
	rate       rate.Limit
	burst      int
	writeRate  rate.Limit
	writeBurst int
	cleanup    time.Duration
	stopCh     chan struct{}
}

// New creates a new RateLimiter with the given configuration
func New(cfg Config) *RateLimiter {
	// Convert requests per minute to rate.Limit (requests per second)
	r := rate.Limit(float64(cfg.RequestsPerMin) / 60.0)

	cleanupDuration := time.Duration(cfg.CleanupMinutes) * time.Minute
	if cleanupDuration <= 0 {
		cleanupDuration = 10 * time.Minute
	}

	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     r,
		burst:    cfg.BurstSize,
		cleanup:  cleanupDuration,
		stopCh:   make(chan struct{}),
	}
	if cfg.WriteRequestsPerMin > 0 {
		rl.writeRate = rate.Limit(float64(cfg.WriteRequestsPerMin) / 60.0)
		rl.writeBurst = cfg.WriteBurstSize
		if rl.writeBurst <= 0 {
			rl.writeBurst = 1
		}
	}

	// Start cleanup goroutine
	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// cleanupLoop periodically removes stale client entries
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup_stale()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup_stale removes entries that haven't been seen recently
func (rl *RateLimiter) cleanup_stale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.cleanup)
	for key, limiter := range rl.limiters {
		if limiter.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// getLimiter gets or creates a rate limiter for the given client
func (rl *RateLimiter) getLimiter(client string) *rate.Limiter {
	return rl.limiterFor(client, rl.rate, rl.burst)
}

// getWriteLimiter gets or creates the write limiter for the given client
func (rl *RateLimiter) getWriteLimiter(client string) *rate.Limiter {
	return rl.limiterFor("write:"+client, rl.writeRate, rl.writeBurst)
}

func (rl *RateLimiter) limiterFor(key string, r rate.Limit, burst int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[key]; exists {
		limiter.lastSeen = time.Now()
		return limiter.limiter
	}

	limiter := rate.NewLimiter(r, burst)
	rl.limiters[key] = &clientLimiter{
		limiter:  limiter,
		lastSeen: time.Now(),
	}
	return limiter
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// healthCheckPaths are exempt from rate limiting
var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/readyz":  true,
}

// Middleware returns an HTTP middleware that rate limits requests per client.
// It must run after realip.Middleware, and after auth.OptionalMiddleware for
// account keyed budgets.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Bypass rate limiting for health checks
			if healthCheckPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			client := realip.ClientKey(r)
			limiter := rl.getLimiter(client)

			if !limiter.Allow() {
				tooManyRequests(w, "Too many requests. Please try again later.")
				return
			}

			if rl.writeRate > 0 && isWrite(r.Method) && !rl.getWriteLimiter(client).Allow() {
				tooManyRequests(w, "Too many transactions. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tooManyRequests(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.Header().Set("X-Rate-Limit-Exceeded", "true")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    "RATE_LIMIT_EXCEEDED",
			"message": message,
		},
	})
}

// Middleware returns a rate limiting middleware with the given configuration.
// This is a convenience function that creates a RateLimiter and returns its middleware.
// Note: The returned RateLimiter's cleanup goroutine will run for the lifetime of the process.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		// Return a no-op middleware if rate limiting is disabled
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	rl := New(cfg)
	return rl.Middleware()
}
