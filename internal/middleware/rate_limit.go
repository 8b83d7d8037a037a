package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the default number of uploads per minute per client
	DefaultRateLimit = 30
	// DefaultBurstSize is the default burst size
	DefaultBurstSize = 5

	evictInterval = 5 * time.Minute
	idleTTL       = 10 * time.Minute
)

// Decision is the outcome of one Take call
type Decision struct {
	Allowed    bool
	Remaining  int
	Reset      time.Time // when the bucket is full again
	RetryAfter time.Duration
}

// RateLimiter keeps a token bucket per client key. Idle buckets are evicted
// in the background until Stop is called.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perMinute int
	perSecond rate.Limit
	burst     int
	stop      chan struct{}
	stopOnce  sync.Once
	logger    zerolog.Logger
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with default settings
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter allowing requestsPerMinute
// with bursts of burstSize
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		buckets:   make(map[string]*bucket),
		perMinute: requestsPerMinute,
		perSecond: rate.Limit(float64(requestsPerMinute) / 60),
		burst:     burstSize,
		stop:      make(chan struct{}),
		logger:    log.Logger.With().Str("component", "rate_limiter").Logger(),
	}

	go rl.evictLoop()

	return rl
}

// Take spends one token for key if one is available
func (r *RateLimiter) Take(key string) Decision {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.perSecond, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	d := Decision{
		Allowed:   allowed,
		Remaining: max(int(tokens), 0),
		Reset:     now.Add(r.refillTime(float64(r.burst) - tokens)),
	}
	if !allowed {
		d.RetryAfter = r.refillTime(1 - tokens)
	}
	return d
}

// Allow reports whether key may make another request
func (r *RateLimiter) Allow(key string) bool {
	return r.Take(key).Allowed
}

func (r *RateLimiter) refillTime(tokens float64) time.Duration {
	if tokens <= 0 || r.perSecond <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(r.perSecond) * float64(time.Second))
}

func (r *RateLimiter) evictLoop() {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.evict(now)
		case <-r.stop:
			return
		}
	}
}

func (r *RateLimiter) evict(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, b := range r.buckets {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(r.buckets, key)
			r.logger.Debug().Str("client", key).Msg("Evicted idle rate limiter")
		}
	}
}

// Stop ends background eviction. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RateLimitMiddleware limits requests per client IP and reports the bucket
// state in X-RateLimit-* headers
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			client := c.RealIP()
			d := rl.Take(client)

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if d.Allowed {
				return next(c)
			}

			retryAfter := max(int(d.RetryAfter.Round(time.Second).Seconds()), 1)
			header.Set("Retry-After", strconv.Itoa(retryAfter))

			rl.logger.Warn().
				Str("client", client).
				Str("path", c.Path()).
				Int("retry_after", retryAfter).
				Msg("Rate limit exceeded")

			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"type":   "https://fortuna-import.app/errors/rate-limit",
				"title":  "Rate Limit Exceeded",
				"status": http.StatusTooManyRequests,
				"detail": fmt.Sprintf("Too many imports. Retry after %d seconds.", retryAfter),
			})
		}
	}
}
