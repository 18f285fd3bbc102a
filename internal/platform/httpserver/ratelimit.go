package httpserver

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lancehub-labs/lancehub-go/internal/platform/env"
)

// RateLimiter applies a per-client-IP token bucket across the whole API.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func RateLimitConfigFromEnv() (RateLimitConfig, error) {
	requests, err := env.Int("RATE_LIMIT_REQUESTS", 100)
	if err != nil {
		return RateLimitConfig{}, err
	}
	window, err := env.Duration("RATE_LIMIT_WINDOW", 15*time.Minute)
	if err != nil {
		return RateLimitConfig{}, err
	}
	return RateLimitConfig{Requests: requests, Window: window}, nil
}

// NewRateLimiter allows cfg.Requests per cfg.Window per client, refilling
// continuously. A non-positive request count disables limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:    cfg.Requests,
	}
}

func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	// Prune stale entries opportunistically.
	if len(l.visitors) > 10000 {
		for key, vis := range l.visitors {
			if now.Sub(vis.lastSeen) > time.Hour {
				delete(l.visitors, key)
			}
		}
	}
	return v.limiter.Allow()
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"message": "Too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
