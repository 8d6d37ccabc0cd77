// Package middleware provides HTTP middleware for the reader API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting
//   - ReaderRateLimit: Per-reader token buckets for command routes
//   - RequestID: X-Request-ID tagging
//
// Idle limiters are evicted after IdleTTL so closed readers do not pin
// memory.
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	readers.Use(middleware.ReaderRateLimit(middleware.DefaultRateLimitConfig()))
package middleware
