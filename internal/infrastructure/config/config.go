package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Reader    ReaderConfig
	Storage   StorageConfig
	Download  DownloadConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins  []string      `envconfig:"CORS_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxSessions     int           `envconfig:"MAX_SESSIONS" default:"64"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-client and per-reader rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// ReaderConfig holds the defaults applied to every opened document.
type ReaderConfig struct {
	Flow                  string   `envconfig:"READER_FLOW" default:"paginated"`
	Manager               string   `envconfig:"READER_MANAGER" default:"default"`
	CharactersPerLocation int      `envconfig:"READER_CHARACTERS_PER_LOCATION" default:"1600"`
	EnableSelection       bool     `envconfig:"READER_ENABLE_SELECTION" default:"true"`
	AllowScriptedContent  bool     `envconfig:"READER_ALLOW_SCRIPTED_CONTENT" default:"false"`
	AllowPopups           bool     `envconfig:"READER_ALLOW_POPUPS" default:"false"`
	WaitForLocationsReady bool     `envconfig:"READER_WAIT_FOR_LOCATIONS" default:"false"`
	KeepScrollOffset      bool     `envconfig:"READER_KEEP_SCROLL_OFFSET" default:"false"`
	Scripts               []string `envconfig:"READER_SCRIPTS" default:"jszip.min.js,epub.min.js"`
	MaxEventSize          int      `envconfig:"READER_MAX_EVENT_SIZE" default:"8388608"`
}

// StorageConfig holds directory configuration.
type StorageConfig struct {
	AssetsDir    string   `envconfig:"ASSETS_DIR" default:"./assets"`
	DocumentDir  string   `envconfig:"DOCUMENT_DIR" default:"./data/documents"`
	CacheDir     string   `envconfig:"CACHE_DIR" default:"./data/cache"`
	ThemeDir     string   `envconfig:"THEME_DIR"`
	AllowedPaths []string `envconfig:"ALLOWED_PATHS"`
}

// DownloadConfig holds remote source download configuration.
type DownloadConfig struct {
	Timeout      time.Duration `envconfig:"DOWNLOAD_TIMEOUT" default:"60s"`
	RetryMax     int           `envconfig:"DOWNLOAD_RETRY_MAX" default:"3"`
	RetryWaitMin time.Duration `envconfig:"DOWNLOAD_RETRY_WAIT_MIN" default:"1s"`
	RetryWaitMax time.Duration `envconfig:"DOWNLOAD_RETRY_WAIT_MAX" default:"30s"`
	MaxBytes     int64         `envconfig:"DOWNLOAD_MAX_BYTES" default:"536870912"`
	UserAgent    string        `envconfig:"DOWNLOAD_USER_AGENT" default:"ReaderBridge/1.0"`
	RateLimit    float64       `envconfig:"DOWNLOAD_RATE_LIMIT" default:"0"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks values envconfig cannot check by type alone.
func (c *Config) Validate() error {
	if !types.Flow(c.Reader.Flow).Valid() {
		return fmt.Errorf("unknown reader flow %q", c.Reader.Flow)
	}
	switch types.Manager(c.Reader.Manager) {
	case types.ManagerDefault, types.ManagerContinuous:
	default:
		return fmt.Errorf("unknown reader manager %q", c.Reader.Manager)
	}
	if c.Reader.CharactersPerLocation <= 0 {
		return fmt.Errorf("characters per location must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive rps and burst")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
			MaxSessions:     64,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Reader: ReaderConfig{
			Flow:                  string(types.FlowPaginated),
			Manager:               string(types.ManagerDefault),
			CharactersPerLocation: 1600,
			EnableSelection:       true,
			Scripts:               []string{"jszip.min.js", "epub.min.js"},
			MaxEventSize:          8 * 1024 * 1024,
		},
		Storage: StorageConfig{
			AssetsDir:   "./assets",
			DocumentDir: "./data/documents",
			CacheDir:    "./data/cache",
		},
		Download: DownloadConfig{
			Timeout:      60 * time.Second,
			RetryMax:     3,
			RetryWaitMin: time.Second,
			RetryWaitMax: 30 * time.Second,
			MaxBytes:     512 * 1024 * 1024,
			UserAgent:    "ReaderBridge/1.0",
		},
	}
}
