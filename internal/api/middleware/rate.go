package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL evicts limiters not used for this long; zero keeps them forever
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           10 * time.Minute,
	}
}

// KeyFunc extracts the bucket key of a request; an empty key is not limited.
type KeyFunc func(c *gin.Context) string

// ByClientIP buckets requests per client address.
func ByClientIP(c *gin.Context) string { return c.ClientIP() }

// ByReader buckets requests per reader session id.
func ByReader(c *gin.Context) string { return c.Param("id") }

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per key.
type limiterSet struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	entries map[string]*limiterEntry
	now     func() time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	return &limiterSet{
		cfg:     cfg,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (s *limiterSet) allow(key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.evict(now)
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst),
		}
		s.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// evict drops idle limiters. Called with mu held.
func (s *limiterSet) evict(now time.Time) {
	if s.cfg.IdleTTL <= 0 {
		return
	}
	for key, entry := range s.entries {
		if now.Sub(entry.lastSeen) > s.cfg.IdleTTL {
			delete(s.entries, key)
		}
	}
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RateLimitBy creates a token bucket middleware keyed by key.
func RateLimitBy(cfg RateLimitConfig, key KeyFunc) gin.HandlerFunc {
	set := newLimiterSet(cfg)

	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}
		if !set.allow(k) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return RateLimitBy(cfg, ByClientIP)
}

// ReaderRateLimit limits commands sent to a single reader session.
func ReaderRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return RateLimitBy(cfg, ByReader)
}
