package filesystem

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotAllowed is returned for paths outside the document directory and allow-list
	ErrNotAllowed = errors.New("filesystem: path not allowed")
	// ErrTooLarge is returned when a download exceeds the configured limit
	ErrTooLarge = errors.New("filesystem: download exceeds size limit")
)

// StatusError is returned when a download answers with a non-200 status
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "download failed: " + e.Status
}

// FileSystem is the file access a reading session needs
type FileSystem interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	Stat(ctx context.Context, path string) (FileInfo, error)
	// Download fetches url into the document directory under name and
	// returns the local path
	Download(ctx context.Context, url, name string) (string, error)
	DocumentDirectory() string
}

// FileInfo represents file metadata
type FileInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension,omitempty"`
	MimeType  string    `json:"mimeType,omitempty"`
	Charset   string    `json:"charset,omitempty"`
}

// Config configures the local file system
type Config struct {
	DocumentDir string
	Download    DownloadConfig
}

// DownloadConfig defines download client behavior
type DownloadConfig struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	MaxBytes     int64
	UserAgent    string
	// RateLimit is requests per second; zero means unlimited
	RateLimit float64
}

// DefaultDownloadConfig returns production download settings
func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		Timeout:      60 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 30 * time.Second,
		MaxBytes:     512 * 1024 * 1024,
		UserAgent:    "ReaderBridge/1.0",
	}
}
