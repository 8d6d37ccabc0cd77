// Package main is the entry point for the Reader Bridge server.
//
// The server hosts EPUB reader sessions. Each session serves a bootstrap
// document that loads the rendering scripts and the bridge script, which
// connects back over a WebSocket to report reader events and receive
// commands.
//
//	Client (REST) → Reader Bridge → WebSocket → Rendering surface
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults when the environment is invalid
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
