package handler

import (
	"context"
	"go-music-api/common"
	"go-music-api/logger"
	"go-music-api/metrics"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginRateLimiter throttles login attempts per client IP.
type LoginRateLimiter struct {
	rate    rate.Limit
	burst   int
	metrics *metrics.Collector

	mu       sync.Mutex
	limiters map[string]*ipLimiter
	idleTTL  time.Duration
}

// NewLoginRateLimiter allows perMinute requests per IP with the given burst.
func NewLoginRateLimiter(perMinute, burst int, collector *metrics.Collector) *LoginRateLimiter {
	return &LoginRateLimiter{
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		metrics:  collector,
		limiters: make(map[string]*ipLimiter),
		idleTTL:  10 * time.Minute,
	}
}

func (rl *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.limiterFor(ip).Allow() {
			rl.metrics.RecordRateLimited()
			logger.Log.WithField("ip", ip).Warn("Login rate limit exceeded")

			retryAfter := int(math.Ceil(1.0 / float64(rl.rate)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			common.NewAppError(http.StatusTooManyRequests, "Too many login attempts. Please try again later.", nil).
				WithHeader("Retry-After", strconv.Itoa(retryAfter)).
				Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *LoginRateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if l, ok := rl.limiters[ip]; ok {
		l.lastAccess = now
		return l.limiter
	}
	l := &ipLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst), lastAccess: now}
	rl.limiters[ip] = l
	return l.limiter
}

// Cleanup drops limiters that have been idle for longer than the idle TTL.
func (rl *LoginRateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, l := range rl.limiters {
		if now.Sub(l.lastAccess) > rl.idleTTL {
			delete(rl.limiters, ip)
		}
	}
}

// Start runs Cleanup every idle TTL until ctx is cancelled. It blocks.
func (rl *LoginRateLimiter) Start(ctx context.Context) {
	ticker := time.NewTicker(rl.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// clientIP is the host part of RemoteAddr. Forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
