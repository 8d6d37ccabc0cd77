// Package server wires the reader bridge together.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (request id, metrics, CORS, rate limiting, recovery)
//   - File system, navigation cache and theme registry
//   - Session manager and the WebSocket sandbox bridge
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger (production or development)
//  3. Open the document directory, cache directory and theme files
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
