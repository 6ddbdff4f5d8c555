package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/zatekoja/propertymarket/backend/internal/domain/providers"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
)

// RateLimiter caps requests per authenticated user in fixed windows. Counters
// live in the cache provider so every API instance shares them; when the
// cache is missing or failing an in-process counter takes over.
type RateLimiter struct {
	cache   providers.CacheProvider
	scope   string
	limit   int
	window  time.Duration
	metrics *observability.Metrics
	now     func() time.Time

	mu    sync.Mutex
	local map[string]localCount
}

type localCount struct {
	bucket int64
	n      int64
}

// NewRateLimiter creates a limiter allowing limit requests per window.
// A limit of zero or less disables it.
func NewRateLimiter(cache providers.CacheProvider, scope string, limit int, window time.Duration, metrics *observability.Metrics) *RateLimiter {
	return &RateLimiter{
		cache:   cache,
		scope:   scope,
		limit:   limit,
		window:  window,
		metrics: metrics,
		now:     time.Now,
		local:   make(map[string]localCount),
	}
}

func (l *RateLimiter) bucket() int64 {
	return l.now().Unix() / int64(l.window.Seconds())
}

func (l *RateLimiter) key(userID string, bucket int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", l.scope, userID, bucket)
}

// hit counts one request and returns the count in the current window
func (l *RateLimiter) hit(r *http.Request, userID string) int64 {
	bucket := l.bucket()
	key := l.key(userID, bucket)

	if l.cache != nil {
		n, err := l.cache.Increment(r.Context(), key, int(l.window.Seconds()))
		if err == nil {
			return n
		}
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("Rate limit counter unavailable, using local counter")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.local[userID]
	if c.bucket != bucket {
		c = localCount{bucket: bucket}
	}
	c.n++
	l.local[userID] = c
	return c.n
}

// Middleware limits authenticated requests. Anonymous requests pass through;
// RequireAuth decides whether they are allowed.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if l.limit <= 0 || l.window <= 0 || claims == nil {
			next.ServeHTTP(w, r)
			return
		}

		count := l.hit(r, claims.UserID)
		remaining := int64(l.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(l.limit) {
			observability.RecordRateLimited(r.Context(), l.metrics)
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			writeAuthError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}
