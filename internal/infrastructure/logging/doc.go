// Package logging provides structured logging for the reader bridge using
// uber/zap.
//
// Two modes are supported:
//   - Production: JSON output with timestamp, level, component and message keys
//   - Development: Colored console output for human readability
//
// Components receive a plain *zap.Logger. Use Component to name a subsystem
// and Reader to scope records to one reading session.
//
// Example Usage:
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	manager := session.NewManager(...).WithLogger(logger.Component("session"))
//	logger.Reader(id.String()).Info("reader opened", zap.String("flow", "paginated"))
package logging
