// Package config provides 12-factor configuration management for the reader
// bridge.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins, session limit)
//   - Logging: Log level and output format
//   - RateLimit: Per-client rate limiting configuration
//   - Reader: Defaults for every opened document (flow, selection, scripts)
//   - Storage: Assets, documents, navigation cache and theme directories
//   - Download: Remote source download limits and retry policy
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS, SHUTDOWN_TIMEOUT, MAX_SESSIONS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - READER_FLOW, READER_MANAGER, READER_CHARACTERS_PER_LOCATION, READER_SCRIPTS
//   - ASSETS_DIR, DOCUMENT_DIR, CACHE_DIR, THEME_DIR, ALLOWED_PATHS
//   - DOWNLOAD_TIMEOUT, DOWNLOAD_RETRY_MAX, DOWNLOAD_MAX_BYTES
package config
