package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/ReaderBridge/internal/api/http"
	"github.com/GriffinCanCode/ReaderBridge/internal/api/middleware"
	"github.com/GriffinCanCode/ReaderBridge/internal/api/ws"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/session"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/filesystem"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/storage"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/theme"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// bridgeScriptURI resolves against the document URL to /readers/:id/bridge.js
const bridgeScriptURI = "bridge.js"

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	cache    *storage.FileCache
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing Reader Bridge",
		zap.String("port", cfg.Server.Port),
		zap.String("documents", cfg.Storage.DocumentDir),
		zap.String("cache", cfg.Storage.CacheDir),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	allow, err := filesystem.NewAllowList(cfg.Storage.AllowedPaths)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed paths: %w", err)
	}
	fs, err := filesystem.NewLocal(filesystem.Config{
		DocumentDir: cfg.Storage.DocumentDir,
		Download: filesystem.DownloadConfig{
			Timeout:      cfg.Download.Timeout,
			RetryMax:     cfg.Download.RetryMax,
			RetryWaitMin: cfg.Download.RetryWaitMin,
			RetryWaitMax: cfg.Download.RetryWaitMax,
			MaxBytes:     cfg.Download.MaxBytes,
			UserAgent:    cfg.Download.UserAgent,
			RateLimit:    cfg.Download.RateLimit,
		},
	}, allow, filesystem.WithLogger(logger.Component("filesystem")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file system: %w", err)
	}

	cache, err := storage.NewFileCache(cfg.Storage.CacheDir, storage.WithLogger(logger.Component("storage")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize navigation cache: %w", err)
	}

	themes := theme.NewRegistry(theme.WithLogger(logger.Component("theme")))
	if cfg.Storage.ThemeDir != "" {
		n, err := themes.LoadDir(cfg.Storage.ThemeDir)
		if err != nil {
			logger.Warn("Failed to load themes", zap.String("dir", cfg.Storage.ThemeDir), zap.Error(err))
		} else {
			logger.Info("Loaded themes", zap.Int("count", n))
		}
	}

	sessions := session.NewManager(sessionConfig(cfg), fs, cache, themes).
		WithLogger(logger.Component("session")).
		WithMetrics(metrics)

	tracer := tracing.New(logger.Component("trace"), 1000)
	router := newRouter(cfg, logger, metrics, tracer, sessions, themes)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sessions: sessions,
		cache:    cache,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		tracer:   tracer,
	}, nil
}

// sessionConfig maps the environment onto session defaults
func sessionConfig(cfg *config.Config) session.Config {
	scripts := make([]string, 0, len(cfg.Reader.Scripts)+1)
	for _, name := range cfg.Reader.Scripts {
		scripts = append(scripts, "/assets/"+name)
	}
	scripts = append(scripts, bridgeScriptURI)

	return session.Config{
		ScriptURIs: scripts,
		Defaults: session.Defaults{
			Flow:                  types.Flow(cfg.Reader.Flow),
			Manager:               types.Manager(cfg.Reader.Manager),
			CharactersPerLocation: cfg.Reader.CharactersPerLocation,
			EnableSelection:       cfg.Reader.EnableSelection,
			AllowScriptedContent:  cfg.Reader.AllowScriptedContent,
			AllowPopups:           cfg.Reader.AllowPopups,
			WaitForLocationsReady: cfg.Reader.WaitForLocationsReady,
			KeepScrollOffset:      cfg.Reader.KeepScrollOffset,
		},
		SourceRoute:  session.DefaultSourceRoute,
		MaxSessions:  cfg.Server.MaxSessions,
		MaxEventSize: cfg.Reader.MaxEventSize,
	}
}

func newRouter(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics, tracer *tracing.Tracer, sessions *session.Manager, themes *theme.Registry) *gin.Engine {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.Middleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(corsCfg))

	var readerLimits []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
		readerLimits = append(readerLimits, middleware.ReaderRateLimit(limits))
	}

	handlers := apihttp.NewHandlers(sessions, themes, metrics, logger.Component("http"))
	handlers.Register(router, readerLimits...)

	wsHandler := ws.NewHandler(sessions, ws.DefaultConfig()).
		WithLogger(logger.Component("ws")).
		WithMetrics(metrics)
	router.GET("/readers/:id/bridge.js", wsHandler.ServeBridge)
	router.GET("/readers/:id/stream", wsHandler.HandleConnection)

	// Renderer scripts
	router.Static("/assets", cfg.Storage.AssetsDir)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.sessions.CloseAll()
	s.logger.Info("Closed readers")
	s.tracer.Close()

	if err := s.cache.Close(); err != nil {
		s.logger.Error("Failed to close navigation cache", zap.Error(err))
		return fmt.Errorf("failed to close navigation cache: %w", err)
	}

	// Sync logger before exit
	_ = s.logger.Sync()

	return nil
}
